package hospital

import (
	"context"
)

// Repository reads the hospital, department, and team master tables. All
// master data is maintained by an external loader; this service never
// writes it.
type Repository interface {
	// ListBySourceNosOrNames returns every hospital matching any of the
	// given source numbers or display names, in one round trip.
	ListBySourceNosOrNames(ctx context.Context, sourceNos []int, names []string) ([]*Hospital, error)

	// FindTeam looks a team up by code first, then by name.
	FindTeam(ctx context.Context, code, name string) (*Team, error)

	// ListDepartmentsByValue returns departments whose short name or full
	// name matches any of the given values.
	ListDepartmentsByValue(ctx context.Context, values []string) ([]*Department, error)

	// SuggestByName returns hospitals whose name contains q, exact and
	// prefix matches first.
	SuggestByName(ctx context.Context, q string, limit int) ([]*Hospital, error)
}
