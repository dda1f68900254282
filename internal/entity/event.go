package entity

// Event is a single event as returned by the ticketing platform.
type Event struct {
	ID            string        `json:"_id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	StartDate     string        `json:"startDate"`
	EndDate       string        `json:"endDate"`
	Location      EventLocation `json:"eventLocation"`
	URL           string        `json:"url"`
	TotalCapacity *int          `json:"totalCapacity"`
	TicketTypes   []TicketType  `json:"ticketTypes"`
}

type EventLocation struct {
	VenueName string `json:"venueName"`
}

type TicketType struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Disabled bool   `json:"disabled"`
	Deleted  bool   `json:"deleted"`
}

// Active reports whether the ticket type counts toward tickets remaining.
func (t TicketType) Active() bool {
	return !t.Disabled && !t.Deleted
}

// RemainingTickets sums the quantities of active ticket types.
func (e *Event) RemainingTickets() int {
	total := 0
	for _, tt := range e.TicketTypes {
		if tt.Active() {
			total += tt.Quantity
		}
	}
	return total
}

// AttendeeSnapshot is a best-effort order count for one event.
type AttendeeSnapshot struct {
	EventID string
	Count   int
}

// TicketStatus is the computed view shown for a ticket-status query.
// Nil counts are unknown.
type TicketStatus struct {
	Capacity  *int
	Attendees *int
	Remaining *int
	Live      bool // attendees come from an attendee snapshot
}
