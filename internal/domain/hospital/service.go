package hospital

import (
	"context"
	"strings"
)

// Service exposes master-data lookups to the transfer workflows and the
// suggest endpoint.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Ref identifies a hospital the way clients do: by upstream source number,
// by display name, or both. A zero SourceNo means "unknown".
type Ref struct {
	SourceNo int
	Name     string
}

// Resolve batch-resolves hospital references in one lookup. References that
// match nothing are simply absent from the result; callers decide whether a
// partial resolution is acceptable.
func (s *Service) Resolve(ctx context.Context, refs []Ref) (map[Ref]*Hospital, error) {
	if len(refs) == 0 {
		return map[Ref]*Hospital{}, nil
	}

	var sourceNos []int
	var names []string
	for _, ref := range refs {
		if ref.SourceNo > 0 {
			sourceNos = append(sourceNos, ref.SourceNo)
		}
		if name := strings.TrimSpace(ref.Name); name != "" {
			names = append(names, name)
		}
	}

	hospitals, err := s.repo.ListBySourceNosOrNames(ctx, sourceNos, names)
	if err != nil {
		return nil, err
	}

	bySourceNo := make(map[int]*Hospital, len(hospitals))
	byName := make(map[string]*Hospital, len(hospitals))
	for _, h := range hospitals {
		bySourceNo[h.SourceNo] = h
		byName[h.Name] = h
	}

	resolved := make(map[Ref]*Hospital, len(refs))
	for _, ref := range refs {
		if h, ok := bySourceNo[ref.SourceNo]; ok {
			resolved[ref] = h
			continue
		}
		if h, ok := byName[strings.TrimSpace(ref.Name)]; ok {
			resolved[ref] = h
		}
	}
	return resolved, nil
}

// ResolveTeam finds a team by code or name. A nil result with nil error
// means no match; the caller records the request without a team.
func (s *Service) ResolveTeam(ctx context.Context, code, name string) (*Team, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" && name == "" {
		return nil, nil
	}
	return s.repo.FindTeam(ctx, code, name)
}

// DepartmentLabels maps stored department values (short names or full
// names) to display names. Values with no master entry map to themselves.
func (s *Service) DepartmentLabels(ctx context.Context, values []string) (map[string]string, error) {
	labels := make(map[string]string, len(values))
	for _, v := range values {
		labels[v] = v
	}
	if len(values) == 0 {
		return labels, nil
	}

	departments, err := s.repo.ListDepartmentsByValue(ctx, values)
	if err != nil {
		return nil, err
	}
	byShortName := make(map[string]string, len(departments))
	byName := make(map[string]string, len(departments))
	for _, d := range departments {
		byShortName[d.ShortName] = d.Name
		byName[d.Name] = d.Name
	}
	for _, v := range values {
		if name, ok := byShortName[v]; ok {
			labels[v] = name
		} else if name, ok := byName[v]; ok {
			labels[v] = name
		}
	}
	return labels, nil
}

// Suggest returns hospitals whose name matches q, best matches first.
func (s *Service) Suggest(ctx context.Context, q string, limit int) ([]*Hospital, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 20 {
		limit = 10
	}
	return s.repo.SuggestByName(ctx, q, limit)
}
