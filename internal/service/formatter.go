package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"golang.org/x/net/html"
)

const (
	DefaultListLimit = 10

	timestampLayout = "Monday, 02 January 2006 at 03:04 PM MST"
	placeholder     = "TBA"
	noDescription   = "No description provided."
	unknownValue    = "unknown"
)

// Formatter renders events into chat replies.
type Formatter struct {
	loc       *time.Location
	listLimit int
}

func NewFormatter(loc *time.Location, listLimit int) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &Formatter{loc: loc, listLimit: listLimit}
}

// EventList renders at most listLimit events followed by a count of the rest.
func (f *Formatter) EventList(events []entity.Event) string {
	if len(events) == 0 {
		return "No upcoming events found."
	}

	var b strings.Builder
	b.WriteString("📅 **Upcoming events:**\n")

	shown := events
	if len(shown) > f.listLimit {
		shown = shown[:f.listLimit]
	}
	for _, e := range shown {
		fmt.Fprintf(&b, "• **%s** (%s)\n", e.Name, f.Timestamp(e.StartDate))
	}
	if rest := len(events) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "...and %d more.", rest)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (f *Formatter) EventDetails(e *entity.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📌 **%s**\n", e.Name)
	fmt.Fprintf(&b, "🗓️ Starts: %s\n", f.Timestamp(e.StartDate))
	fmt.Fprintf(&b, "🏁 Ends: %s\n", f.Timestamp(e.EndDate))
	fmt.Fprintf(&b, "📍 Venue: %s\n", venue(e))

	description := StripMarkup(e.Description)
	if description == "" {
		description = noDescription
	}
	fmt.Fprintf(&b, "📝 %s", description)

	if e.URL != "" {
		fmt.Fprintf(&b, "\n🔗 %s", e.URL)
	}
	return b.String()
}

func (f *Formatter) TicketStatus(e *entity.Event, status entity.TicketStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎟️ **Ticket status for %s**\n", e.Name)
	fmt.Fprintf(&b, "🗓️ %s\n", f.Timestamp(e.StartDate))
	fmt.Fprintf(&b, "👥 Attendees: %s\n", optional(status.Attendees))
	fmt.Fprintf(&b, "🎫 Tickets remaining: %s\n", optional(status.Remaining))
	fmt.Fprintf(&b, "📊 Total capacity: %s", optional(status.Capacity))

	if !status.Live {
		b.WriteString("\nℹ️ Real-time attendee data is unavailable, attendee count is estimated from ticket availability.")
	}
	return b.String()
}

func (f *Formatter) CapacityUpdated(e *entity.Event, previous *int, capacity int) string {
	if previous == nil {
		return fmt.Sprintf("✅ Capacity for **%s** set to %d.", e.Name, capacity)
	}
	return fmt.Sprintf("✅ Capacity for **%s** updated from %d to %d.", e.Name, *previous, capacity)
}

// Timestamp renders an ISO-8601 timestamp in the formatter's location.
// Unparsable input is returned unchanged.
func (f *Formatter) Timestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return placeholder
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return raw
	}
	return t.In(f.loc).Format(timestampLayout)
}

func venue(e *entity.Event) string {
	if name := strings.TrimSpace(e.Location.VenueName); name != "" {
		return name
	}
	return placeholder
}

func optional(v *int) string {
	if v == nil {
		return unknownValue
	}
	return fmt.Sprintf("%d", *v)
}

var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// StripMarkup removes HTML tags and returns the trimmed text. Block-level
// tags become line breaks.
func StripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseLines(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "script" || tag == "style":
				skip++
			case blockTags[tag] && b.Len() > 0:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case (tag == "script" || tag == "style") && skip > 0:
				skip--
			case blockTags[tag] && b.Len() > 0:
				b.WriteByte('\n')
			}
		}
	}
}

// collapseLines trims every line and folds runs of blank lines into one.
func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
