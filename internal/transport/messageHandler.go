package transport

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/ds124wfegd/eventbot/internal/intent"
	"github.com/ds124wfegd/eventbot/internal/metrics"
	"github.com/ds124wfegd/eventbot/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	fallbackReply      = "👋 You mentioned me!"
	notConfiguredReply = "Humanitix API key is not configured."

	eventDetailsUsage = "Please specify the event name, e.g. event details intro to leetcode"
	ticketStatusUsage = "Please specify the event name, e.g. 'How many tickets remaining for [event name]?' or 'What is the ticket status for [event name]?'"
	capacityUsage     = "Please specify the event name and new capacity, e.g.:\n" +
		"• `@bot update capacity for [event name] to [number]`\n" +
		"• `@bot change capacity for [event name] to [number]`\n" +
		"• `@bot set capacity for [event name] to [number]`"
	invalidCapacity = "Capacity must be a whole number of 0 or more."

	replyTimeout = 10 * time.Second
)

// Channel is a chat platform connection able to answer a message.
type Channel interface {
	// SelfID is the bot's identity in the form used by ChatMessage.Mentions.
	SelfID() string
	Reply(ctx context.Context, msg *entity.ChatMessage, text string) error
}

// Deduper reports whether a message id is being handled for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, platform, messageID string) bool
}

type MessageHandler struct {
	classifier *intent.Classifier
	events     service.EventService
	deduper    Deduper
	timeout    time.Duration
}

// NewMessageHandler builds the inbound message handler. deduper may be nil.
func NewMessageHandler(classifier *intent.Classifier, events service.EventService, deduper Deduper, timeout time.Duration) *MessageHandler {
	return &MessageHandler{
		classifier: classifier,
		events:     events,
		deduper:    deduper,
		timeout:    timeout,
	}
}

// Handle answers msg on ch when it mentions the bot. It never returns an
// error: failures become reply text, and failed sends are logged.
func (h *MessageHandler) Handle(ctx context.Context, ch Channel, msg *entity.ChatMessage) {
	self := ch.SelfID()
	if self == "" || msg.AuthorID == self || !msg.MentionsUser(self) {
		return
	}

	if h.deduper != nil && !h.deduper.FirstSeen(ctx, msg.Platform, msg.ID) {
		metrics.DuplicateMessage(msg.Platform)
		logrus.WithFields(logrus.Fields{
			"platform":   msg.Platform,
			"message_id": msg.ID,
		}).Debug("duplicate message ignored")
		return
	}

	workCtx := ctx
	if h.timeout > 0 {
		var cancel context.CancelFunc
		workCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	result := h.classifier.Classify(msg.Text)
	reply := h.Respond(workCtx, msg, result)

	entry := logrus.WithFields(logrus.Fields{
		"request_id": uuid.NewString(),
		"platform":   msg.Platform,
		"channel_id": msg.ChannelID,
		"author_id":  msg.AuthorID,
		"intent":     string(result.Intent),
		"duration":   time.Since(start),
	})
	metrics.MessageHandled(msg.Platform, string(result.Intent))

	// The reply must go out even when the work above used up its deadline.
	sendCtx, cancelSend := context.WithTimeout(context.WithoutCancel(ctx), replyTimeout)
	defer cancelSend()

	if err := ch.Reply(sendCtx, msg, reply); err != nil {
		entry.WithError(err).Error("failed to send reply")
		return
	}
	entry.Info("message handled")
}

// Respond produces the reply text for a classified message.
func (h *MessageHandler) Respond(ctx context.Context, msg *entity.ChatMessage, result intent.Result) string {
	if result.Err != nil {
		return h.errorReply(result.Intent, result.Err)
	}

	var (
		reply string
		err   error
	)
	switch result.Intent {
	case entity.IntentListEvents:
		reply, err = h.events.ListEvents(ctx)
	case entity.IntentEventDetails:
		reply, err = h.events.EventDetails(ctx, result.Args.EventName)
	case entity.IntentTicketStatus:
		reply, err = h.events.TicketStatus(ctx, result.Args.EventName)
	case entity.IntentUpdateCapacity:
		reply, err = h.events.UpdateCapacity(ctx, &service.UpdateCapacityRequest{
			EventName:   result.Args.EventName,
			Capacity:    result.Args.Capacity,
			RequestedBy: msg.AuthorID,
			Platform:    msg.Platform,
		})
	default:
		return fallbackReply
	}

	if err != nil {
		return h.errorReply(result.Intent, err)
	}
	return reply
}

func (h *MessageHandler) errorReply(in entity.Intent, err error) string {
	var noMatch *entity.NoMatchError

	switch {
	case errors.Is(err, entity.ErrNotConfigured):
		metrics.ReplyError("not_configured")
		return notConfiguredReply
	case errors.Is(err, entity.ErrMissingArgument):
		metrics.ReplyError("missing_argument")
		return usageHint(in)
	case errors.Is(err, entity.ErrInvalidCapacity):
		metrics.ReplyError("invalid_capacity")
		return invalidCapacity + "\n" + capacityUsage
	case errors.As(err, &noMatch):
		metrics.ReplyError("no_match")
		return "No event found matching '" + noMatch.Query + "'."
	default:
		metrics.ReplyError("remote")
		logrus.WithFields(logrus.Fields{
			"intent": string(in),
			"error":  err.Error(),
		}).Warn("intent failed")
		return "Error " + errorContext(in) + ": " + err.Error()
	}
}

func usageHint(in entity.Intent) string {
	switch in {
	case entity.IntentEventDetails:
		return eventDetailsUsage
	case entity.IntentTicketStatus:
		return ticketStatusUsage
	case entity.IntentUpdateCapacity:
		return capacityUsage
	default:
		return fallbackReply
	}
}

func errorContext(in entity.Intent) string {
	switch in {
	case entity.IntentListEvents:
		return "fetching events"
	case entity.IntentEventDetails:
		return "fetching event details"
	case entity.IntentTicketStatus:
		return "fetching ticket status"
	case entity.IntentUpdateCapacity:
		return "updating ticket capacity"
	default:
		return "handling message"
	}
}
