package service

import (
	"fmt"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "inline tags", input: "<p>Hello <b>world</b></p>", want: "Hello world"},
		{name: "plain text", input: "  just text  ", want: "just text"},
		{name: "paragraphs", input: "<p>one</p><p>two</p>", want: "one\n\ntwo"},
		{name: "line break", input: "a<br/>b", want: "a\nb"},
		{name: "script dropped", input: "<p>hi</p><script>alert(1)</script>", want: "hi"},
		{name: "entities decoded", input: "<p>Fish &amp; Chips</p>", want: "Fish & Chips"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripMarkup(tt.input))
		})
	}
}

func TestFormatter_Timestamp(t *testing.T) {
	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  *time.Location
		raw  string
		want string
	}{
		{name: "utc", loc: time.UTC, raw: "2025-03-01T09:00:00.000Z", want: "Saturday, 01 March 2025 at 09:00 AM UTC"},
		{name: "converted", loc: sydney, raw: "2025-03-01T09:00:00Z", want: "Saturday, 01 March 2025 at 08:00 PM AEDT"},
		{name: "unparsable kept", loc: time.UTC, raw: "next tuesday", want: "next tuesday"},
		{name: "empty", loc: time.UTC, raw: "", want: "TBA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFormatter(tt.loc, 0).Timestamp(tt.raw))
		})
	}
}

func TestFormatter_EventList(t *testing.T) {
	f := NewFormatter(time.UTC, DefaultListLimit)

	var events []entity.Event
	for i := 1; i <= 12; i++ {
		events = append(events, entity.Event{Name: fmt.Sprintf("Event %02d", i)})
	}

	out := f.EventList(events)

	assert.Contains(t, out, "Event 10")
	assert.NotContains(t, out, "Event 11")
	assert.True(t, strings.HasSuffix(out, "...and 2 more."))
	assert.Equal(t, 10, strings.Count(out, "• "))
}

func TestFormatter_EventList_Short(t *testing.T) {
	f := NewFormatter(time.UTC, DefaultListLimit)

	out := f.EventList([]entity.Event{{Name: "Gala", StartDate: "2025-03-01T09:00:00Z"}})

	assert.Equal(t, "📅 **Upcoming events:**\n• **Gala** (Saturday, 01 March 2025 at 09:00 AM UTC)", out)
	assert.Equal(t, "No upcoming events found.", f.EventList(nil))
}

func TestFormatter_EventDetails(t *testing.T) {
	f := NewFormatter(time.UTC, DefaultListLimit)

	t.Run("full event", func(t *testing.T) {
		out := f.EventDetails(&entity.Event{
			Name:        "Intro to LeetCode",
			Description: "<p>Hello <b>world</b></p>",
			StartDate:   "2025-03-01T09:00:00Z",
			EndDate:     "2025-03-01T11:30:00Z",
			Location:    entity.EventLocation{VenueName: "Room 1"},
			URL:         "https://events.humanitix.com/leetcode",
		})

		assert.Contains(t, out, "**Intro to LeetCode**")
		assert.Contains(t, out, "Starts: Saturday, 01 March 2025 at 09:00 AM UTC")
		assert.Contains(t, out, "Ends: Saturday, 01 March 2025 at 11:30 AM UTC")
		assert.Contains(t, out, "Venue: Room 1")
		assert.Contains(t, out, "📝 Hello world")
		assert.NotContains(t, out, "<")
		assert.True(t, strings.HasSuffix(out, "🔗 https://events.humanitix.com/leetcode"))
	})

	t.Run("sparse event", func(t *testing.T) {
		out := f.EventDetails(&entity.Event{Name: "Gala", StartDate: "soon"})

		assert.Contains(t, out, "Starts: soon")
		assert.Contains(t, out, "Venue: TBA")
		assert.Contains(t, out, "No description provided.")
		assert.NotContains(t, out, "🔗")
	})
}

func TestFormatter_TicketStatus(t *testing.T) {
	f := NewFormatter(time.UTC, DefaultListLimit)
	event := &entity.Event{Name: "Gala"}

	live := f.TicketStatus(event, entity.TicketStatus{
		Capacity: intPtr(100), Attendees: intPtr(70), Remaining: intPtr(30), Live: true,
	})
	assert.Contains(t, live, "Attendees: 70")
	assert.Contains(t, live, "Tickets remaining: 30")
	assert.Contains(t, live, "Total capacity: 100")
	assert.NotContains(t, live, "unavailable")

	estimated := f.TicketStatus(event, entity.TicketStatus{Remaining: intPtr(30)})
	assert.Contains(t, estimated, "Attendees: unknown")
	assert.Contains(t, estimated, "Total capacity: unknown")
	assert.Contains(t, estimated, "Real-time attendee data is unavailable")
}

func TestFormatter_CapacityUpdated(t *testing.T) {
	f := NewFormatter(time.UTC, DefaultListLimit)
	event := &entity.Event{Name: "Gala"}

	assert.Equal(t, "✅ Capacity for **Gala** updated from 100 to 150.", f.CapacityUpdated(event, intPtr(100), 150))
	assert.Equal(t, "✅ Capacity for **Gala** set to 150.", f.CapacityUpdated(event, nil, 150))
}
