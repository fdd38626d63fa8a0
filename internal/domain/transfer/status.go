package transfer

// Status is the lifecycle state of a single (request, hospital) target.
type Status string

const (
	StatusUnread            Status = "UNREAD"
	StatusRead              Status = "READ"
	StatusNegotiating       Status = "NEGOTIATING"
	StatusAcceptable        Status = "ACCEPTABLE"
	StatusNotAcceptable     Status = "NOT_ACCEPTABLE"
	StatusTransportDecided  Status = "TRANSPORT_DECIDED"
	StatusTransportDeclined Status = "TRANSPORT_DECLINED"
)

// Statuses lists every valid target status in display order.
var Statuses = []Status{
	StatusUnread,
	StatusRead,
	StatusNegotiating,
	StatusAcceptable,
	StatusNotAcceptable,
	StatusTransportDecided,
	StatusTransportDeclined,
}

// Role identifies which kind of actor is attempting a transition.
type Role string

const (
	RoleEMS      Role = "EMS"
	RoleHospital Role = "HOSPITAL"
	RoleAdmin    Role = "ADMIN"
)

// Event types recorded in the audit log.
const (
	EventSent              = "sent"
	EventOpenedDetail      = "opened_detail"
	EventHospitalResponse  = "hospital_response"
	EventParamedicDecision = "paramedic_decision"
	EventBackfilled        = "backfilled"
)

// hospitalTransitions lists the statuses a hospital actor may move a target
// to from each current status. Terminal statuses have no outgoing edges.
var hospitalTransitions = map[Status][]Status{
	StatusUnread:      {StatusRead, StatusNegotiating, StatusAcceptable, StatusNotAcceptable},
	StatusRead:        {StatusNegotiating, StatusAcceptable, StatusNotAcceptable},
	StatusNegotiating: {StatusAcceptable, StatusNotAcceptable},
}

// emsTransitions lists the statuses an EMS actor may move a target to.
// Crews can only act once a hospital has engaged (NEGOTIATING or ACCEPTABLE).
var emsTransitions = map[Status][]Status{
	StatusNegotiating: {StatusTransportDeclined},
	StatusAcceptable:  {StatusTransportDecided, StatusTransportDeclined},
}

var statusLabels = map[Status]string{
	StatusUnread:            "未読",
	StatusRead:              "既読",
	StatusNegotiating:       "要相談",
	StatusAcceptable:        "受入可能",
	StatusNotAcceptable:     "受入不可",
	StatusTransportDecided:  "搬送決定",
	StatusTransportDeclined: "辞退",
}

// IsValidStatus reports whether value is one of the seven known statuses.
// Write paths must reject anything else.
func IsValidStatus(value string) bool {
	_, ok := statusLabels[Status(value)]
	return ok
}

// ParseStatus converts a raw string into a Status, reporting whether the
// value is recognized.
func ParseStatus(value string) (Status, bool) {
	if IsValidStatus(value) {
		return Status(value), true
	}
	return "", false
}

// DisplayStatus maps a stored value to a Status for read paths. Unknown or
// corrupt values render as UNREAD rather than failing the whole page.
func DisplayStatus(value string) Status {
	if s, ok := ParseStatus(value); ok {
		return s
	}
	return StatusUnread
}

// CanTransition reports whether an actor with the given role may move a
// target from one status to another. A transition to the same status is
// always permitted so that replays stay idempotent. Admin actors may perform
// any transition.
func CanTransition(from, to Status, role Role) bool {
	if from == to {
		return true
	}
	switch role {
	case RoleHospital:
		return containsStatus(hospitalTransitions[from], to)
	case RoleEMS:
		return containsStatus(emsTransitions[from], to)
	case RoleAdmin:
		return true
	}
	return false
}

// Label returns the display label for a status.
func Label(s Status) string {
	return statusLabels[s]
}

// IsTerminal reports whether no role other than admin can move a target out
// of the given status.
func IsTerminal(s Status) bool {
	return len(hospitalTransitions[s]) == 0 && len(emsTransitions[s]) == 0
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
