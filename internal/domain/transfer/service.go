package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ems/transport/internal/domain/hospital"
)

// HospitalDirectory is the slice of the master-data service the workflows
// need: batched hospital resolution, team lookup, and department labels.
type HospitalDirectory interface {
	Resolve(ctx context.Context, refs []hospital.Ref) (map[hospital.Ref]*hospital.Hospital, error)
	ResolveTeam(ctx context.Context, code, name string) (*hospital.Team, error)
	DepartmentLabels(ctx context.Context, values []string) (map[string]string, error)
}

// Actor is the authenticated identity acting on a request, as resolved by
// the identity layer. The workflows trust it as-is.
type Actor struct {
	ID         int64
	Role       Role
	TeamID     *int
	HospitalID *int
}

type Service struct {
	repo      Repository
	directory HospitalDirectory
}

func NewService(repo Repository, directory HospitalDirectory) *Service {
	return &Service{repo: repo, directory: directory}
}

// -- Request creation --

// SendHospital is one hospital chosen for a fan-out, identified by source
// number or display name, with an optional hospital-specific department
// subset.
type SendHospital struct {
	SourceNo    int      `json:"hospital_id"`
	Name        string   `json:"hospital_name"`
	Departments []string `json:"departments"`
}

// SendRequestInput is the creation workflow's input. SentAt is the
// client-supplied send time; anything unparseable falls back to now.
type SendRequestInput struct {
	RequestID           string          `json:"request_id"`
	CaseID              string          `json:"case_id"`
	SentAt              string          `json:"sent_at"`
	PatientSummary      json.RawMessage `json:"patient_summary"`
	TeamCode            string          `json:"team_code"`
	TeamName            string          `json:"team_name"`
	SelectedDepartments []string        `json:"selected_departments"`
	Hospitals           []SendHospital  `json:"hospitals"`
}

// SentTarget reports one successfully created or refreshed target.
type SentTarget struct {
	TargetID     int64  `json:"target_id"`
	HospitalID   int    `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
}

// SendResult reports the outcome of a fan-out. Skipped is true when zero
// hospitals resolved and nothing was written.
type SendResult struct {
	RequestID  string       `json:"request_id"`
	Targets    []SentTarget `json:"targets"`
	Unresolved int          `json:"unresolved"`
	Skipped    bool         `json:"skipped"`
}

// SendRequest opens one logical request fanned out to every hospital that
// resolves, each target starting UNREAD. Hospitals that fail to resolve are
// dropped rather than failing the whole send; when none resolve the workflow
// is a no-op. Replaying the same request identifier refreshes the request
// row and target departments without regressing any target's status.
func (s *Service) SendRequest(ctx context.Context, actor *Actor, in *SendRequestInput) (*SendResult, error) {
	if actor == nil || (actor.Role != RoleEMS && actor.Role != RoleAdmin) {
		return nil, fmt.Errorf("%w: only EMS crews may send transfer requests", ErrForbidden)
	}
	if strings.TrimSpace(in.CaseID) == "" {
		return nil, validationf("case_id is required")
	}
	requestID := strings.TrimSpace(in.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	if len(in.Hospitals) == 0 {
		return nil, validationf("at least one hospital is required")
	}

	sentAt := parseSentAt(in.SentAt)
	defaultDepartments := NormalizeDepartments(in.SelectedDepartments)

	teamID := actor.TeamID
	if teamID == nil {
		team, err := s.directory.ResolveTeam(ctx, in.TeamCode, in.TeamName)
		if err != nil {
			return nil, fmt.Errorf("resolve team: %w", err)
		}
		if team != nil {
			teamID = &team.ID
		}
	}

	refs := make([]hospital.Ref, 0, len(in.Hospitals))
	for _, h := range in.Hospitals {
		refs = append(refs, hospital.Ref{SourceNo: h.SourceNo, Name: strings.TrimSpace(h.Name)})
	}
	resolved, err := s.directory.Resolve(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("resolve hospitals: %w", err)
	}

	result := &SendResult{RequestID: requestID}
	if len(resolved) == 0 {
		// Nothing matched the master data. Tolerated: the crew keeps working
		// and no partial request row is left behind.
		result.Skipped = true
		result.Unresolved = len(in.Hospitals)
		return result, nil
	}

	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		requestPK, err := s.repo.CreateOrUpdateRequest(ctx, &Request{
			RequestID:       requestID,
			CaseID:          strings.TrimSpace(in.CaseID),
			PatientSummary:  in.PatientSummary,
			FromTeamID:      teamID,
			CreatedByUserID: &actor.ID,
			SentAt:          sentAt,
		})
		if err != nil {
			return err
		}

		seen := make(map[int]bool)
		for i, h := range in.Hospitals {
			hosp, ok := resolved[refs[i]]
			if !ok {
				result.Unresolved++
				continue
			}
			if seen[hosp.ID] {
				continue
			}
			seen[hosp.ID] = true

			departments := NormalizeDepartments(h.Departments)
			if len(departments) == 0 {
				departments = defaultDepartments
			}

			targetID, err := s.repo.UpsertTarget(ctx, requestPK, hosp.ID, StatusUnread, departments, &actor.ID)
			if err != nil {
				return err
			}
			to := StatusUnread
			if err := s.repo.RecordEvent(ctx, &Event{
				TargetID:      targetID,
				EventType:     EventSent,
				ToStatus:      &to,
				ActedByUserID: &actor.ID,
			}); err != nil {
				return err
			}
			result.Targets = append(result.Targets, SentTarget{
				TargetID:     targetID,
				HospitalID:   hosp.ID,
				HospitalName: hosp.Name,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// -- Hospital response --

// GetDetail returns one target's detail for the hospital viewing it.
// Viewing is itself a state change: an UNREAD target transitions to READ
// before the payload is returned, once, idempotently.
func (s *Service) GetDetail(ctx context.Context, actor *Actor, targetID int64) (*TargetDetail, error) {
	if err := s.requireHospitalActor(actor); err != nil {
		return nil, err
	}
	target, err := s.repo.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.HospitalID != *actor.HospitalID {
		return nil, fmt.Errorf("%w: target belongs to another hospital", ErrForbidden)
	}

	if _, err := s.repo.MarkRead(ctx, targetID, actor.ID); err != nil {
		return nil, err
	}

	detail, err := s.repo.GetTargetDetail(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if len(detail.SelectedDepartments) > 0 {
		labels, err := s.directory.DepartmentLabels(ctx, detail.SelectedDepartments)
		if err != nil {
			return nil, err
		}
		resolved := make([]string, len(detail.SelectedDepartments))
		for i, v := range detail.SelectedDepartments {
			resolved[i] = labels[v]
		}
		detail.SelectedDepartments = resolved
	}
	return detail, nil
}

// Respond applies an explicit hospital decision (NEGOTIATING, ACCEPTABLE, or
// NOT_ACCEPTABLE) to the hospital's own target. A NEGOTIATING response must
// carry a consultation note for the ambulance crew to read.
func (s *Service) Respond(ctx context.Context, actor *Actor, targetID int64, rawStatus string, note *string) (*Target, error) {
	if err := s.requireHospitalActor(actor); err != nil {
		return nil, err
	}
	to, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, validationf("unknown status %q", rawStatus)
	}
	if to == StatusNegotiating && (note == nil || strings.TrimSpace(*note) == "") {
		return nil, validationf("a note is required when requesting negotiation")
	}

	target, err := s.repo.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.HospitalID != *actor.HospitalID {
		return nil, fmt.Errorf("%w: target belongs to another hospital", ErrForbidden)
	}

	return s.repo.ApplyTransition(ctx, targetID, to, actor.ID, RoleHospital, EventHospitalResponse, note)
}

// -- Ambulance decision --

// Decide finalizes a target as TRANSPORT_DECIDED or TRANSPORT_DECLINED. Any
// EMS user may decide, not only the originating team; cross-team handoffs
// are legitimate here. TRANSPORT_DECIDED additionally materializes the
// hospital's patient record inside the same transaction.
func (s *Service) Decide(ctx context.Context, actor *Actor, targetID int64, rawStatus string, note *string) (*Target, error) {
	if actor == nil || (actor.Role != RoleEMS && actor.Role != RoleAdmin) {
		return nil, fmt.Errorf("%w: only EMS crews may record transport decisions", ErrForbidden)
	}
	to, ok := ParseStatus(rawStatus)
	if !ok || (to != StatusTransportDecided && to != StatusTransportDeclined) {
		return nil, validationf("decision must be %s or %s", StatusTransportDecided, StatusTransportDeclined)
	}

	target, err := s.repo.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequestByPK(ctx, target.TransferRequestID)
	if err != nil {
		return nil, err
	}

	var updated *Target
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		updated, err = s.repo.ApplyTransition(ctx, targetID, to, actor.ID, actor.Role, EventParamedicDecision, note)
		if err != nil {
			return err
		}
		if to != StatusTransportDecided {
			return nil
		}
		return s.repo.UpsertPatientRecord(ctx, &PatientRecord{
			TargetID:   targetID,
			HospitalID: target.HospitalID,
			CaseID:     request.CaseID,
			RequestID:  request.RequestID,
			Status:     StatusTransportDecided,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// -- Read paths --

func (s *Service) ListForHospital(ctx context.Context, actor *Actor, limit, offset int) ([]*TargetListItem, int, error) {
	if err := s.requireHospitalActor(actor); err != nil {
		return nil, 0, err
	}
	return s.repo.ListTargetsForHospital(ctx, *actor.HospitalID, limit, offset)
}

func (s *Service) ListPatients(ctx context.Context, actor *Actor, limit, offset int) ([]*PatientRecord, int, error) {
	if err := s.requireHospitalActor(actor); err != nil {
		return nil, 0, err
	}
	return s.repo.ListPatientsForHospital(ctx, *actor.HospitalID, limit, offset)
}

// ListEvents exposes a target's audit trail. Hospital users see only their
// own targets; EMS and admin users see any.
func (s *Service) ListEvents(ctx context.Context, actor *Actor, targetID int64) ([]*Event, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	target, err := s.repo.GetTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actor.Role == RoleHospital {
		if actor.HospitalID == nil || target.HospitalID != *actor.HospitalID {
			return nil, fmt.Errorf("%w: target belongs to another hospital", ErrForbidden)
		}
	}
	return s.repo.ListEventsForTarget(ctx, targetID)
}

// Aggregate derives one display status per request identifier for the
// given case.
func (s *Service) Aggregate(ctx context.Context, caseID string, requestIDs []string) ([]*RequestStatusSummary, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return nil, validationf("case_id is required")
	}
	ids := dedupeStrings(requestIDs)
	if len(ids) == 0 {
		return nil, validationf("at least one request_id is required")
	}

	statuses, err := s.repo.StatusesByRequest(ctx, caseID, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]*RequestStatusSummary, 0, len(ids))
	for _, id := range ids {
		targetStatuses, ok := statuses[id]
		if !ok {
			continue
		}
		overall := AggregateStatuses(targetStatuses)
		summaries = append(summaries, &RequestStatusSummary{
			RequestID:   id,
			CaseID:      caseID,
			Status:      overall,
			StatusLabel: Label(overall),
			TargetCount: len(targetStatuses),
		})
	}
	return summaries, nil
}

// -- Helpers --

func (s *Service) requireHospitalActor(actor *Actor) error {
	if actor == nil || actor.Role != RoleHospital || actor.HospitalID == nil {
		return fmt.Errorf("%w: hospital account required", ErrForbidden)
	}
	return nil
}

// NormalizeDepartments trims, drops blanks, and dedupes while preserving
// order. Applied once here at the workflow boundary so stored department
// lists are always clean.
func NormalizeDepartments(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func dedupeStrings(values []string) []string {
	return NormalizeDepartments(values)
}

func parseSentAt(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Now()
}
