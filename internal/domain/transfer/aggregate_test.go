package transfer

import (
	"testing"
)

func TestAggregateStatuses(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusUnread},
		{"single unread", []Status{StatusUnread}, StatusUnread},
		{"all unread", []Status{StatusUnread, StatusUnread, StatusUnread}, StatusUnread},
		{"one read", []Status{StatusUnread, StatusRead}, StatusRead},
		{"negotiating counts as engaged", []Status{StatusUnread, StatusNegotiating}, StatusRead},
		{"not acceptable counts as engaged", []Status{StatusUnread, StatusNotAcceptable}, StatusRead},
		{"acceptable wins over read", []Status{StatusRead, StatusAcceptable, StatusUnread}, StatusAcceptable},
		{"declined wins over acceptable", []Status{StatusAcceptable, StatusTransportDeclined}, StatusTransportDeclined},
		{"decided wins over everything", []Status{StatusTransportDeclined, StatusAcceptable, StatusTransportDecided, StatusUnread}, StatusTransportDecided},
		{"mixed without decision", []Status{StatusRead, StatusNegotiating, StatusNotAcceptable}, StatusRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AggregateStatuses(tt.statuses); got != tt.want {
				t.Errorf("AggregateStatuses(%v) = %s, want %s", tt.statuses, got, tt.want)
			}
		})
	}
}

func TestAggregateStatuses_ThreeHospitalFanOut(t *testing.T) {
	// One request sent to three hospitals: the first declines to accept, the
	// second has only opened it, the third can accept. The crew's board shows
	// the acceptance.
	statuses := []Status{StatusNotAcceptable, StatusRead, StatusAcceptable}
	if got := AggregateStatuses(statuses); got != StatusAcceptable {
		t.Errorf("expected ACCEPTABLE, got %s", got)
	}
}
