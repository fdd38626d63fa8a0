package transfer

// AggregateStatuses derives one overall display status for a request from
// the statuses of all its per-hospital targets. A multi-hospital fan-out
// surfaces the most actionable signal first:
//
//	TRANSPORT_DECIDED > TRANSPORT_DECLINED > ACCEPTABLE > all-UNREAD > READ
//
// A request whose targets are all still UNREAD reads as UNREAD; once any
// hospital has engaged at all (READ, NEGOTIATING, or NOT_ACCEPTABLE mixed in)
// it reads as READ so the sending crew knows something happened.
func AggregateStatuses(statuses []Status) Status {
	if len(statuses) == 0 {
		return StatusUnread
	}

	present := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		present[s] = true
	}

	switch {
	case present[StatusTransportDecided]:
		return StatusTransportDecided
	case present[StatusTransportDeclined]:
		return StatusTransportDeclined
	case present[StatusAcceptable]:
		return StatusAcceptable
	}

	for _, s := range statuses {
		if s != StatusUnread {
			return StatusRead
		}
	}
	return StatusUnread
}
