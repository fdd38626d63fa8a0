package transfer

import (
	"context"
)

// Repository persists transfer requests, their per-hospital targets, the
// append-only event log, and the derived patient records.
//
// Status never changes through UpsertTarget; every status change flows
// through ApplyTransition or MarkRead so that the event log stays complete.
type Repository interface {
	// InTx runs fn inside one database transaction; nested calls join the
	// enclosing transaction. Workflows use it to make multi-step writes
	// (fan-out creation, decision plus patient record) atomic.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// CreateOrUpdateRequest upserts by the globally unique request_id and
	// returns the internal primary key.
	CreateOrUpdateRequest(ctx context.Context, r *Request) (int64, error)
	GetRequestByPK(ctx context.Context, pk int64) (*Request, error)

	// UpsertTarget upserts by the unique (request, hospital) pair. On
	// conflict it overwrites departments and updater but never status.
	UpsertTarget(ctx context.Context, requestPK int64, hospitalID int, initial Status, departments []string, actingUserID *int64) (int64, error)
	GetTarget(ctx context.Context, targetID int64) (*Target, error)

	// RecordEvent appends one audit row.
	RecordEvent(ctx context.Context, e *Event) error
	ListEventsForTarget(ctx context.Context, targetID int64) ([]*Event, error)

	// ApplyTransition moves a target to a new status if the transition table
	// permits it for the acting role, stamping the relevant timestamp column
	// and appending one event, atomically. Illegal transitions return a
	// *TransitionError and write nothing.
	ApplyTransition(ctx context.Context, targetID int64, to Status, actingUserID int64, role Role, eventType string, note *string) (*Target, error)

	// MarkRead transitions UNREAD -> READ only when the target is currently
	// UNREAD. Returns whether a change occurred; already-read targets are a
	// no-op, not an error.
	MarkRead(ctx context.Context, targetID, actingUserID int64) (bool, error)

	// UpsertPatientRecord upserts by unique target id. Called only as part
	// of a TRANSPORT_DECIDED transition.
	UpsertPatientRecord(ctx context.Context, p *PatientRecord) error
	ListPatientsForHospital(ctx context.Context, hospitalID, limit, offset int) ([]*PatientRecord, int, error)

	ListTargetsForHospital(ctx context.Context, hospitalID, limit, offset int) ([]*TargetListItem, int, error)
	GetTargetDetail(ctx context.Context, targetID int64) (*TargetDetail, error)

	// StatusesByRequest returns the raw per-target statuses for each of the
	// given request identifiers under one case.
	StatusesByRequest(ctx context.Context, caseID string, requestIDs []string) (map[string][]Status, error)
}
