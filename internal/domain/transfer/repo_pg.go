package transfer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ems/transport/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns the PostgreSQL-backed repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// InTx joins the enclosing transaction when one is present, otherwise opens
// its own, so that multi-statement operations stay atomic either way.
func (r *repoPG) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}

// -- Requests --

const requestCols = `id, request_id, case_id, patient_summary, from_team_id,
	created_by_user_id, sent_at, created_at, updated_at`

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(&req.ID, &req.RequestID, &req.CaseID, &req.PatientSummary, &req.FromTeamID,
		&req.CreatedByUserID, &req.SentAt, &req.CreatedAt, &req.UpdatedAt)
	return &req, err
}

func (r *repoPG) CreateOrUpdateRequest(ctx context.Context, req *Request) (int64, error) {
	summary := req.PatientSummary
	if len(summary) == 0 {
		summary = []byte(`{}`)
	}
	var pk int64
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO transfer_requests (request_id, case_id, patient_summary, from_team_id, created_by_user_id, sent_at, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5, $6, NOW())
		ON CONFLICT (request_id)
		DO UPDATE SET
			case_id = EXCLUDED.case_id,
			patient_summary = EXCLUDED.patient_summary,
			from_team_id = EXCLUDED.from_team_id,
			sent_at = EXCLUDED.sent_at,
			updated_at = NOW()
		RETURNING id`,
		req.RequestID, req.CaseID, summary, req.FromTeamID, req.CreatedByUserID, req.SentAt).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("upsert transfer request %s: %w", req.RequestID, err)
	}
	req.ID = pk
	return pk, nil
}

func (r *repoPG) GetRequestByPK(ctx context.Context, pk int64) (*Request, error) {
	req, err := scanRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+requestCols+` FROM transfer_requests WHERE id = $1`, pk))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("request %d: %w", pk, ErrNotFound)
	}
	return req, err
}

// -- Targets --

const targetCols = `id, transfer_request_id, hospital_id, status, selected_departments,
	opened_at, responded_at, decided_at, updated_by_user_id, created_at, updated_at`

func scanTarget(row pgx.Row) (*Target, error) {
	var t Target
	err := row.Scan(&t.ID, &t.TransferRequestID, &t.HospitalID, &t.Status, &t.SelectedDepartments,
		&t.OpenedAt, &t.RespondedAt, &t.DecidedAt, &t.UpdatedByUserID, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) UpsertTarget(ctx context.Context, requestPK int64, hospitalID int, initial Status, departments []string, actingUserID *int64) (int64, error) {
	if departments == nil {
		departments = []string{}
	}
	var id int64
	// On conflict the status is deliberately left alone: a replayed send must
	// not regress a target that a hospital has already acted on.
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO transfer_request_targets (transfer_request_id, hospital_id, status, selected_departments, updated_by_user_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (transfer_request_id, hospital_id)
		DO UPDATE SET
			selected_departments = EXCLUDED.selected_departments,
			updated_by_user_id = EXCLUDED.updated_by_user_id,
			updated_at = NOW()
		RETURNING id`,
		requestPK, hospitalID, initial, departments, actingUserID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert target (request %d, hospital %d): %w", requestPK, hospitalID, err)
	}
	return id, nil
}

func (r *repoPG) GetTarget(ctx context.Context, targetID int64) (*Target, error) {
	t, err := scanTarget(r.conn(ctx).QueryRow(ctx,
		`SELECT `+targetCols+` FROM transfer_request_targets WHERE id = $1`, targetID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("target %d: %w", targetID, ErrNotFound)
	}
	return t, err
}

// -- Events --

func (r *repoPG) RecordEvent(ctx context.Context, e *Event) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO transfer_request_events (target_id, event_type, from_status, to_status, acted_by_user_id, note, acted_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, acted_at`,
		e.TargetID, e.EventType, e.FromStatus, e.ToStatus, e.ActedByUserID, e.Note).
		Scan(&e.ID, &e.ActedAt)
	if err != nil {
		return fmt.Errorf("record event %s for target %d: %w", e.EventType, e.TargetID, err)
	}
	return nil
}

func (r *repoPG) ListEventsForTarget(ctx context.Context, targetID int64) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, target_id, event_type, from_status, to_status, acted_by_user_id, note, acted_at
		FROM transfer_request_events WHERE target_id = $1 ORDER BY acted_at, id`, targetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.TargetID, &e.EventType, &e.FromStatus, &e.ToStatus,
			&e.ActedByUserID, &e.Note, &e.ActedAt); err != nil {
			return nil, err
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

// -- Transitions --

func (r *repoPG) ApplyTransition(ctx context.Context, targetID int64, to Status, actingUserID int64, role Role, eventType string, note *string) (*Target, error) {
	var updated *Target
	err := r.InTx(ctx, func(ctx context.Context) error {
		t, err := r.GetTarget(ctx, targetID)
		if err != nil {
			return err
		}
		from, ok := ParseStatus(string(t.Status))
		if !ok {
			return validationf("target %d has unrecognized status %q", targetID, t.Status)
		}
		if !CanTransition(from, to, role) {
			return &TransitionError{From: from, To: to, Role: role}
		}

		// The WHERE clause re-checks the status so a concurrent transition
		// cannot slip in between the read and the write.
		row := r.conn(ctx).QueryRow(ctx, `
			UPDATE transfer_request_targets
			SET status = $2,
			    opened_at = CASE WHEN $2 = 'READ' THEN COALESCE(opened_at, NOW()) ELSE opened_at END,
			    responded_at = CASE WHEN $2 IN ('NEGOTIATING', 'ACCEPTABLE', 'NOT_ACCEPTABLE') THEN NOW() ELSE responded_at END,
			    decided_at = CASE WHEN $2 IN ('TRANSPORT_DECIDED', 'TRANSPORT_DECLINED') THEN NOW() ELSE decided_at END,
			    updated_by_user_id = $3,
			    updated_at = NOW()
			WHERE id = $1 AND status = $4
			RETURNING `+targetCols,
			targetID, to, actingUserID, from)
		updated, err = scanTarget(row)
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a race: the status moved under us. Report it the same way
			// as any other illegal transition attempt.
			return &TransitionError{From: from, To: to, Role: role}
		}
		if err != nil {
			return fmt.Errorf("update target %d status: %w", targetID, err)
		}

		return r.RecordEvent(ctx, &Event{
			TargetID:      targetID,
			EventType:     eventType,
			FromStatus:    &from,
			ToStatus:      &to,
			ActedByUserID: &actingUserID,
			Note:          note,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repoPG) MarkRead(ctx context.Context, targetID, actingUserID int64) (bool, error) {
	changed := false
	err := r.InTx(ctx, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE transfer_request_targets
			SET status = 'READ',
			    opened_at = COALESCE(opened_at, NOW()),
			    updated_by_user_id = $2,
			    updated_at = NOW()
			WHERE id = $1 AND status = 'UNREAD'`,
			targetID, actingUserID)
		if err != nil {
			return fmt.Errorf("mark target %d read: %w", targetID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		changed = true

		from, to := StatusUnread, StatusRead
		return r.RecordEvent(ctx, &Event{
			TargetID:      targetID,
			EventType:     EventOpenedDetail,
			FromStatus:    &from,
			ToStatus:      &to,
			ActedByUserID: &actingUserID,
		})
	})
	return changed, err
}

// -- Patient records --

func (r *repoPG) UpsertPatientRecord(ctx context.Context, p *PatientRecord) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO hospital_patients (target_id, hospital_id, case_id, request_id, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (target_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()`,
		p.TargetID, p.HospitalID, p.CaseID, p.RequestID, p.Status)
	if err != nil {
		return fmt.Errorf("upsert patient record for target %d: %w", p.TargetID, err)
	}
	return nil
}

func (r *repoPG) ListPatientsForHospital(ctx context.Context, hospitalID, limit, offset int) ([]*PatientRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM hospital_patients WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, target_id, hospital_id, case_id, request_id, status, created_at, updated_at
		FROM hospital_patients
		WHERE hospital_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PatientRecord
	for rows.Next() {
		var p PatientRecord
		if err := rows.Scan(&p.ID, &p.TargetID, &p.HospitalID, &p.CaseID, &p.RequestID,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, &p)
	}
	return items, total, rows.Err()
}

// -- Read paths --

func (r *repoPG) ListTargetsForHospital(ctx context.Context, hospitalID, limit, offset int) ([]*TargetListItem, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transfer_request_targets WHERE hospital_id = $1`, hospitalID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.id, r.request_id, r.case_id, t.status, r.sent_at,
			et.team_code, et.team_name, t.selected_departments
		FROM transfer_request_targets t
		JOIN transfer_requests r ON r.id = t.transfer_request_id
		LEFT JOIN emergency_teams et ON et.id = r.from_team_id
		WHERE t.hospital_id = $1
		ORDER BY r.sent_at DESC, t.id DESC
		LIMIT $2 OFFSET $3`, hospitalID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TargetListItem
	for rows.Next() {
		var item TargetListItem
		var status string
		if err := rows.Scan(&item.TargetID, &item.RequestID, &item.CaseID, &status, &item.SentAt,
			&item.FromTeamCode, &item.FromTeamName, &item.SelectedDepartments); err != nil {
			return nil, 0, err
		}
		item.Status = DisplayStatus(status)
		item.StatusLabel = Label(item.Status)
		if item.SelectedDepartments == nil {
			item.SelectedDepartments = []string{}
		}
		items = append(items, &item)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetTargetDetail(ctx context.Context, targetID int64) (*TargetDetail, error) {
	var d TargetDetail
	var status string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT t.id, t.hospital_id, t.status, t.selected_departments,
			t.opened_at, t.responded_at, t.decided_at,
			r.request_id, r.case_id, r.sent_at, r.patient_summary,
			et.team_code, et.team_name
		FROM transfer_request_targets t
		JOIN transfer_requests r ON r.id = t.transfer_request_id
		LEFT JOIN emergency_teams et ON et.id = r.from_team_id
		WHERE t.id = $1`, targetID).
		Scan(&d.TargetID, &d.HospitalID, &status, &d.SelectedDepartments,
			&d.OpenedAt, &d.RespondedAt, &d.DecidedAt,
			&d.RequestID, &d.CaseID, &d.SentAt, &d.PatientSummary,
			&d.FromTeamCode, &d.FromTeamName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("target %d: %w", targetID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	d.Status = DisplayStatus(status)
	d.StatusLabel = Label(d.Status)
	if d.SelectedDepartments == nil {
		d.SelectedDepartments = []string{}
	}
	return &d, nil
}

func (r *repoPG) StatusesByRequest(ctx context.Context, caseID string, requestIDs []string) (map[string][]Status, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT r.request_id, t.status
		FROM transfer_requests r
		LEFT JOIN transfer_request_targets t ON t.transfer_request_id = r.id
		WHERE r.case_id = $1 AND r.request_id = ANY($2::text[])`,
		caseID, requestIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make(map[string][]Status)
	for rows.Next() {
		var requestID string
		var status *string
		if err := rows.Scan(&requestID, &status); err != nil {
			return nil, err
		}
		if _, ok := statuses[requestID]; !ok {
			statuses[requestID] = []Status{}
		}
		if status != nil {
			statuses[requestID] = append(statuses[requestID], DisplayStatus(*status))
		}
	}
	return statuses, rows.Err()
}
