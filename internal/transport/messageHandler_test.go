package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/ds124wfegd/eventbot/internal/intent"
	"github.com/ds124wfegd/eventbot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const botID = "b1"

type fakeEvents struct {
	err    error
	calls  []string
	update *service.UpdateCapacityRequest
}

func (f *fakeEvents) ListEvents(ctx context.Context) (string, error) {
	f.calls = append(f.calls, "list")
	return "events", f.err
}

func (f *fakeEvents) EventDetails(ctx context.Context, name string) (string, error) {
	f.calls = append(f.calls, "details:"+name)
	return "details", f.err
}

func (f *fakeEvents) TicketStatus(ctx context.Context, name string) (string, error) {
	f.calls = append(f.calls, "status:"+name)
	return "status", f.err
}

func (f *fakeEvents) UpdateCapacity(ctx context.Context, req *service.UpdateCapacityRequest) (string, error) {
	f.calls = append(f.calls, "capacity:"+req.EventName)
	f.update = req
	return "updated", f.err
}

// slowEvents blocks ListEvents until the context is done.
type slowEvents struct {
	fakeEvents
}

func (s *slowEvents) ListEvents(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", &entity.RemoteError{Op: "fetch events", Err: ctx.Err()}
}

type fakeChannel struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (c *fakeChannel) SelfID() string { return botID }

func (c *fakeChannel) Reply(ctx context.Context, msg *entity.ChatMessage, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, text)
	return c.err
}

type fakeDeduper struct {
	seen map[string]bool
}

func (d *fakeDeduper) FirstSeen(ctx context.Context, platform, messageID string) bool {
	key := platform + ":" + messageID
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

func mention(id, text string) *entity.ChatMessage {
	return &entity.ChatMessage{
		ID:        id,
		Platform:  "discord",
		ChannelID: "c1",
		AuthorID:  "u1",
		Text:      "<@" + botID + "> " + text,
		Mentions:  []string{botID},
	}
}

func newHandler(events service.EventService, deduper Deduper) *MessageHandler {
	return NewMessageHandler(intent.NewClassifier(nil), events, deduper, time.Second)
}

func TestHandle_IgnoredMessages(t *testing.T) {
	tests := []struct {
		name string
		msg  *entity.ChatMessage
	}{
		{
			name: "no mention",
			msg:  &entity.ChatMessage{ID: "m1", AuthorID: "u1", Text: "list events"},
		},
		{
			name: "other user mentioned",
			msg:  &entity.ChatMessage{ID: "m1", AuthorID: "u1", Text: "<@u2> list events", Mentions: []string{"u2"}},
		},
		{
			name: "own message",
			msg:  &entity.ChatMessage{ID: "m1", AuthorID: botID, Text: "list events", Mentions: []string{botID}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{}
			ch := &fakeChannel{}

			newHandler(events, nil).Handle(context.Background(), ch, tt.msg)

			assert.Empty(t, ch.replies)
			assert.Empty(t, events.calls)
		})
	}
}

func TestHandle_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCall  string
		wantReply string
	}{
		{name: "list", text: "list events please", wantCall: "list", wantReply: "events"},
		{name: "show", text: "show events", wantCall: "list", wantReply: "events"},
		{name: "details", text: "event details Intro to LeetCode", wantCall: "details:intro to leetcode", wantReply: "details"},
		{name: "ticket status", text: "ticket status for gala?", wantCall: "status:gala", wantReply: "status"},
		{name: "attendees", text: "how many attendees for gala", wantCall: "status:gala", wantReply: "status"},
		{name: "capacity wins over ticket status", text: "set capacity for gala to 5, then ticket status", wantCall: "capacity:gala", wantReply: "updated"},
		{name: "details wins over capacity", text: "event details set capacity for gala to 5", wantCall: "details:set capacity for gala to 5", wantReply: "details"},
		{name: "fallback", text: "hello there", wantReply: "👋 You mentioned me!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{}
			ch := &fakeChannel{}

			newHandler(events, nil).Handle(context.Background(), ch, mention("m1", tt.text))

			require.Len(t, ch.replies, 1)
			assert.Equal(t, tt.wantReply, ch.replies[0])
			if tt.wantCall == "" {
				assert.Empty(t, events.calls)
			} else {
				assert.Equal(t, []string{tt.wantCall}, events.calls)
			}
		})
	}
}

func TestHandle_UpdateCapacityRequest(t *testing.T) {
	events := &fakeEvents{}
	ch := &fakeChannel{}

	newHandler(events, nil).Handle(context.Background(), ch, mention("m1", "change capacity for Gala to 250"))

	require.NotNil(t, events.update)
	assert.Equal(t, &service.UpdateCapacityRequest{
		EventName:   "gala",
		Capacity:    250,
		RequestedBy: "u1",
		Platform:    "discord",
	}, events.update)
}

func TestHandle_ErrorReplies(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		err       error
		wantReply string
	}{
		{
			name:      "details without a name",
			text:      "event details",
			wantReply: eventDetailsUsage,
		},
		{
			name:      "ticket status without a name",
			text:      "how many tickets are left",
			wantReply: ticketStatusUsage,
		},
		{
			name:      "capacity without arguments",
			text:      "update capacity please",
			wantReply: capacityUsage,
		},
		{
			name:      "capacity overflow",
			text:      "set capacity for gala to 99999999999999999999999",
			wantReply: invalidCapacity + "\n" + capacityUsage,
		},
		{
			name:      "not configured",
			text:      "list events",
			err:       entity.ErrNotConfigured,
			wantReply: "Humanitix API key is not configured.",
		},
		{
			name:      "no match",
			text:      "event details zzz",
			err:       &entity.NoMatchError{Query: "zzz"},
			wantReply: "No event found matching 'zzz'.",
		},
		{
			name:      "remote failure on list",
			text:      "list events",
			err:       &entity.RemoteError{Op: "fetch events", StatusCode: 502},
			wantReply: "Error fetching events: fetch events: status 502",
		},
		{
			name:      "remote failure on capacity",
			text:      "update capacity for gala to 10",
			err:       &entity.RemoteError{Op: "update capacity", StatusCode: 400, Body: "too low"},
			wantReply: "Error updating ticket capacity: update capacity: status 400: too low",
		},
		{
			name:      "remote failure on ticket status",
			text:      "tickets remaining for gala",
			err:       errors.New("boom"),
			wantReply: "Error fetching ticket status: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := &fakeChannel{}

			newHandler(&fakeEvents{err: tt.err}, nil).Handle(context.Background(), ch, mention("m1", tt.text))

			require.Len(t, ch.replies, 1)
			assert.Equal(t, tt.wantReply, ch.replies[0])
		})
	}
}

func TestHandle_Deduplicates(t *testing.T) {
	events := &fakeEvents{}
	ch := &fakeChannel{}
	h := newHandler(events, &fakeDeduper{seen: map[string]bool{}})

	h.Handle(context.Background(), ch, mention("m1", "list events"))
	h.Handle(context.Background(), ch, mention("m1", "list events"))
	h.Handle(context.Background(), ch, mention("m2", "list events"))

	assert.Len(t, ch.replies, 2)
	assert.Equal(t, []string{"list", "list"}, events.calls)
}

func TestHandle_ReplyFailureIsSwallowed(t *testing.T) {
	ch := &fakeChannel{err: errors.New("missing permissions")}

	assert.NotPanics(t, func() {
		newHandler(&fakeEvents{}, nil).Handle(context.Background(), ch, mention("m1", "list events"))
	})
	assert.Len(t, ch.replies, 1)
}

func TestHandle_TimeoutStillReplies(t *testing.T) {
	ch := &fakeChannel{}
	h := NewMessageHandler(intent.NewClassifier(nil), &slowEvents{}, nil, 50*time.Millisecond)

	h.Handle(context.Background(), ch, mention("m1", "list events"))

	require.Len(t, ch.replies, 1)
	assert.Equal(t, "Error fetching events: fetch events: context deadline exceeded", ch.replies[0])
}

func TestHandle_ParentCancelledStillReplies(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := &fakeChannel{}
	newHandler(&slowEvents{}, nil).Handle(ctx, ch, mention("m1", "list events"))

	require.Len(t, ch.replies, 1)
	assert.Equal(t, "Error fetching events: fetch events: context canceled", ch.replies[0])
}
