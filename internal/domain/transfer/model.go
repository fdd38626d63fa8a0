package transfer

import (
	"encoding/json"
	"time"
)

// Request maps to the transfer_requests table. One row per fan-out event
// from an ambulance crew; replaying the same request_id updates the row
// instead of duplicating it.
type Request struct {
	ID              int64           `db:"id" json:"id"`
	RequestID       string          `db:"request_id" json:"request_id"`
	CaseID          string          `db:"case_id" json:"case_id"`
	PatientSummary  json.RawMessage `db:"patient_summary" json:"patient_summary,omitempty"`
	FromTeamID      *int            `db:"from_team_id" json:"from_team_id,omitempty"`
	CreatedByUserID *int64          `db:"created_by_user_id" json:"created_by_user_id,omitempty"`
	SentAt          time.Time       `db:"sent_at" json:"sent_at"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// Target maps to the transfer_request_targets table: the per-hospital slice
// of a request, carrying its own status lifecycle. At most one target exists
// per (request, hospital) pair and targets are never deleted.
type Target struct {
	ID                  int64      `db:"id" json:"id"`
	TransferRequestID   int64      `db:"transfer_request_id" json:"transfer_request_id"`
	HospitalID          int        `db:"hospital_id" json:"hospital_id"`
	Status              Status     `db:"status" json:"status"`
	SelectedDepartments []string   `db:"selected_departments" json:"selected_departments"`
	OpenedAt            *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	RespondedAt         *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	DecidedAt           *time.Time `db:"decided_at" json:"decided_at,omitempty"`
	UpdatedByUserID     *int64     `db:"updated_by_user_id" json:"updated_by_user_id,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Event maps to the transfer_request_events table: one append-only audit row
// per successful status-affecting action on a target.
type Event struct {
	ID            int64     `db:"id" json:"id"`
	TargetID      int64     `db:"target_id" json:"target_id"`
	EventType     string    `db:"event_type" json:"event_type"`
	FromStatus    *Status   `db:"from_status" json:"from_status,omitempty"`
	ToStatus      *Status   `db:"to_status" json:"to_status,omitempty"`
	ActedByUserID *int64    `db:"acted_by_user_id" json:"acted_by_user_id,omitempty"`
	Note          *string   `db:"note" json:"note,omitempty"`
	ActedAt       time.Time `db:"acted_at" json:"acted_at"`
}

// PatientRecord maps to the hospital_patients table. Created only when a
// target reaches TRANSPORT_DECIDED; keyed uniquely by target.
type PatientRecord struct {
	ID         int64     `db:"id" json:"id"`
	TargetID   int64     `db:"target_id" json:"target_id"`
	HospitalID int       `db:"hospital_id" json:"hospital_id"`
	CaseID     string    `db:"case_id" json:"case_id"`
	RequestID  string    `db:"request_id" json:"request_id"`
	Status     Status    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// TargetListItem is the hospital-facing list row: a target joined with its
// request and the sending team.
type TargetListItem struct {
	TargetID            int64     `json:"target_id"`
	RequestID           string    `json:"request_id"`
	CaseID              string    `json:"case_id"`
	Status              Status    `json:"status"`
	StatusLabel         string    `json:"status_label"`
	SentAt              time.Time `json:"sent_at"`
	FromTeamCode        *string   `json:"from_team_code,omitempty"`
	FromTeamName        *string   `json:"from_team_name,omitempty"`
	SelectedDepartments []string  `json:"selected_departments"`
}

// TargetDetail extends the list row with the fields shown on the detail
// screen. Department values are resolved to display labels by the service.
type TargetDetail struct {
	TargetListItem
	HospitalID     int             `json:"hospital_id"`
	OpenedAt       *time.Time      `json:"opened_at,omitempty"`
	RespondedAt    *time.Time      `json:"responded_at,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	PatientSummary json.RawMessage `json:"patient_summary,omitempty"`
}

// RequestStatusSummary is one aggregated row: the overall display status for
// a logical request derived from all of its per-target statuses.
type RequestStatusSummary struct {
	RequestID   string `json:"request_id"`
	CaseID      string `json:"case_id"`
	Status      Status `json:"status"`
	StatusLabel string `json:"status_label"`
	TargetCount int    `json:"target_count"`
}
