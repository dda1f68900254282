package service

import (
	"context"

	"github.com/ds124wfegd/eventbot/internal/entity"
)

// EventService answers the bot's event intents with ready-to-send replies.
type EventService interface {
	ListEvents(ctx context.Context) (string, error)
	EventDetails(ctx context.Context, name string) (string, error)
	TicketStatus(ctx context.Context, name string) (string, error)
	UpdateCapacity(ctx context.Context, req *UpdateCapacityRequest) (string, error)
}

// EventSource is the remote ticketing platform.
type EventSource interface {
	Configured() bool
	FetchEvents(ctx context.Context) ([]entity.Event, error)
	FetchAttendeeSnapshot(ctx context.Context, eventID string) (entity.AttendeeSnapshot, bool)
	UpdateCapacity(ctx context.Context, eventID string, capacity int) error
}

// AuditPublisher records capacity changes somewhere durable.
type AuditPublisher interface {
	Publish(ctx context.Context, change *entity.CapacityChange) error
}
