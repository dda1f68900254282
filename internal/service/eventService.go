package service

import (
	"context"
	"time"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// UpdateCapacityRequest carries a capacity change asked for in chat.
type UpdateCapacityRequest struct {
	EventName   string
	Capacity    int
	RequestedBy string
	Platform    string
}

type eventService struct {
	source    EventSource
	resolver  *Resolver
	formatter *Formatter
	audit     AuditPublisher
	now       func() time.Time
}

// NewEventService creates a new instance of EventService. audit may be nil.
func NewEventService(
	source EventSource,
	resolver *Resolver,
	formatter *Formatter,
	audit AuditPublisher,
) EventService {
	return &eventService{
		source:    source,
		resolver:  resolver,
		formatter: formatter,
		audit:     audit,
		now:       time.Now,
	}
}

func (s *eventService) ListEvents(ctx context.Context) (string, error) {
	if !s.source.Configured() {
		return "", entity.ErrNotConfigured
	}

	events, err := s.source.FetchEvents(ctx)
	if err != nil {
		return "", err
	}
	return s.formatter.EventList(events), nil
}

func (s *eventService) EventDetails(ctx context.Context, name string) (string, error) {
	event, err := s.resolveEvent(ctx, name)
	if err != nil {
		return "", err
	}
	return s.formatter.EventDetails(event), nil
}

func (s *eventService) TicketStatus(ctx context.Context, name string) (string, error) {
	event, err := s.resolveEvent(ctx, name)
	if err != nil {
		return "", err
	}

	snapshot, ok := s.source.FetchAttendeeSnapshot(ctx, event.ID)
	status := ComputeTicketStatus(event, snapshot, ok)
	return s.formatter.TicketStatus(event, status), nil
}

func (s *eventService) UpdateCapacity(ctx context.Context, req *UpdateCapacityRequest) (string, error) {
	if req.Capacity < 0 {
		return "", entity.ErrInvalidCapacity
	}

	event, err := s.resolveEvent(ctx, req.EventName)
	if err != nil {
		return "", err
	}

	if err := s.source.UpdateCapacity(ctx, event.ID, req.Capacity); err != nil {
		return "", err
	}

	logrus.WithFields(logrus.Fields{
		"event_id":     event.ID,
		"capacity":     req.Capacity,
		"requested_by": req.RequestedBy,
	}).Info("event capacity updated")

	s.publishChange(ctx, event, req)
	return s.formatter.CapacityUpdated(event, event.TotalCapacity, req.Capacity), nil
}

// resolveEvent fetches the current events and picks the one closest to name.
func (s *eventService) resolveEvent(ctx context.Context, name string) (*entity.Event, error) {
	if !s.source.Configured() {
		return nil, entity.ErrNotConfigured
	}
	if name == "" {
		return nil, entity.ErrMissingArgument
	}

	events, err := s.source.FetchEvents(ctx)
	if err != nil {
		return nil, err
	}

	event, ok := s.resolver.Resolve(name, events)
	if !ok {
		return nil, &entity.NoMatchError{Query: name}
	}
	return event, nil
}

func (s *eventService) publishChange(ctx context.Context, event *entity.Event, req *UpdateCapacityRequest) {
	if s.audit == nil {
		return
	}

	change := &entity.CapacityChange{
		ID:               uuid.NewString(),
		EventID:          event.ID,
		EventName:        event.Name,
		PreviousCapacity: event.TotalCapacity,
		NewCapacity:      req.Capacity,
		RequestedBy:      req.RequestedBy,
		Platform:         req.Platform,
		ChangedAt:        s.now().UTC(),
	}

	if err := s.audit.Publish(ctx, change); err != nil {
		logrus.WithFields(logrus.Fields{
			"change_id": change.ID,
			"event_id":  event.ID,
			"error":     err.Error(),
		}).Error("failed to publish capacity change")
	}
}
