package entity

type Intent string

const (
	IntentListEvents     Intent = "list_events"
	IntentEventDetails   Intent = "event_details"
	IntentTicketStatus   Intent = "ticket_status"
	IntentUpdateCapacity Intent = "update_capacity"
	IntentFallback       Intent = "fallback"
)
