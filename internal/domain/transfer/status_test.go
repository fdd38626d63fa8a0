package transfer

import (
	"testing"
)

func TestCanTransition_HospitalTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusUnread:      {StatusRead, StatusNegotiating, StatusAcceptable, StatusNotAcceptable},
		StatusRead:        {StatusNegotiating, StatusAcceptable, StatusNotAcceptable},
		StatusNegotiating: {StatusAcceptable, StatusNotAcceptable},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := from == to || containsStatus(allowed[from], to)
			if got := CanTransition(from, to, RoleHospital); got != want {
				t.Errorf("hospital %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_EMSTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusNegotiating: {StatusTransportDeclined},
		StatusAcceptable:  {StatusTransportDecided, StatusTransportDeclined},
	}

	for _, from := range Statuses {
		for _, to := range Statuses {
			want := from == to || containsStatus(allowed[from], to)
			if got := CanTransition(from, to, RoleEMS); got != want {
				t.Errorf("ems %s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_AdminBypassesTable(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			if !CanTransition(from, to, RoleAdmin) {
				t.Errorf("admin %s -> %s: expected allowed", from, to)
			}
		}
	}
}

func TestCanTransition_SameStatusAlwaysAllowed(t *testing.T) {
	for _, role := range []Role{RoleEMS, RoleHospital, RoleAdmin} {
		for _, s := range Statuses {
			if !CanTransition(s, s, role) {
				t.Errorf("%s %s -> %s: replay should be allowed", role, s, s)
			}
		}
	}
}

func TestCanTransition_UnknownRole(t *testing.T) {
	if CanTransition(StatusUnread, StatusRead, Role("DISPATCHER")) {
		t.Error("unknown role should not be allowed to transition")
	}
}

func TestCanTransition_TerminalStatuses(t *testing.T) {
	for _, terminal := range []Status{StatusNotAcceptable, StatusTransportDecided, StatusTransportDeclined} {
		if !IsTerminal(terminal) {
			t.Errorf("expected %s to be terminal", terminal)
		}
		for _, role := range []Role{RoleEMS, RoleHospital} {
			for _, to := range Statuses {
				if to == terminal {
					continue
				}
				if CanTransition(terminal, to, role) {
					t.Errorf("%s %s -> %s: terminal status must not transition", role, terminal, to)
				}
			}
		}
	}
}

func TestIsTerminal_NonTerminal(t *testing.T) {
	for _, s := range []Status{StatusUnread, StatusRead, StatusNegotiating, StatusAcceptable} {
		if IsTerminal(s) {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses {
		got, ok := ParseStatus(string(s))
		if !ok || got != s {
			t.Errorf("ParseStatus(%q) = %q, %v", s, got, ok)
		}
	}

	for _, bad := range []string{"", "unread", "PENDING", "READ "} {
		if _, ok := ParseStatus(bad); ok {
			t.Errorf("ParseStatus(%q): expected rejection", bad)
		}
	}
}

func TestDisplayStatus_FallsBackToUnread(t *testing.T) {
	if got := DisplayStatus("CORRUPT"); got != StatusUnread {
		t.Errorf("expected UNREAD fallback, got %s", got)
	}
	if got := DisplayStatus(string(StatusAcceptable)); got != StatusAcceptable {
		t.Errorf("expected ACCEPTABLE, got %s", got)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusUnread, "未読"},
		{StatusRead, "既読"},
		{StatusNegotiating, "要相談"},
		{StatusAcceptable, "受入可能"},
		{StatusNotAcceptable, "受入不可"},
		{StatusTransportDecided, "搬送決定"},
		{StatusTransportDeclined, "辞退"},
	}
	for _, tt := range tests {
		if got := Label(tt.status); got != tt.want {
			t.Errorf("Label(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestTransitionError_Message(t *testing.T) {
	err := &TransitionError{From: StatusUnread, To: StatusTransportDecided, Role: RoleHospital}
	want := "transition UNREAD -> TRANSPORT_DECIDED not allowed for role HOSPITAL"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
	if !IsTransitionRejected(err) {
		t.Error("expected IsTransitionRejected to match")
	}
}
