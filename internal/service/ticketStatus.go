package service

import "github.com/ds124wfegd/eventbot/internal/entity"

// ComputeTicketStatus derives attendee and remaining counts for e. A present
// snapshot is authoritative; otherwise counts come from active ticket types.
func ComputeTicketStatus(e *entity.Event, snapshot entity.AttendeeSnapshot, ok bool) entity.TicketStatus {
	status := entity.TicketStatus{Capacity: e.TotalCapacity, Live: ok}

	if ok {
		attendees := snapshot.Count
		status.Attendees = &attendees
		if e.TotalCapacity != nil {
			remaining := max(0, *e.TotalCapacity-attendees)
			status.Remaining = &remaining
		}
		return status
	}

	remaining := e.RemainingTickets()
	status.Remaining = &remaining
	if e.TotalCapacity != nil {
		attendees := max(0, *e.TotalCapacity-remaining)
		status.Attendees = &attendees
	}
	return status
}
