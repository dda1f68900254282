// Package intent classifies chat messages addressed to the bot.
//
// Rules are evaluated top to bottom and the first whose keywords appear in the
// text wins. Keyword sets overlap, so the order of rules is part of the
// behaviour: event details is checked before capacity updates, and capacity
// updates before ticket status.
package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ds124wfegd/eventbot/internal/entity"
)

// Args holds the arguments extracted for an intent.
type Args struct {
	EventName string
	Capacity  int
}

// Result is the outcome of classifying one message. Err is
// entity.ErrMissingArgument or entity.ErrInvalidCapacity when the intent was
// recognised but its arguments could not be extracted.
type Result struct {
	Intent entity.Intent
	Args   Args
	Err    error
}

// Rule pairs a keyword predicate with an argument extractor.
type Rule struct {
	Intent   entity.Intent
	Keywords []string
	Extract  func(text string) (Args, error)
}

func (r Rule) matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

var (
	eventDetailsPattern = regexp.MustCompile(`event details (.+)`)

	capacityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:update|change|set) capacity for (.+?) to (\d+)`),
		regexp.MustCompile(`(?:update|change|set) (.+?) capacity to (\d+)`),
		regexp.MustCompile(`capacity for (.+?) to (\d+)`),
	}

	ticketStatusPattern = regexp.MustCompile(`(?:attendees|tickets remaining|ticket status) for (.+?)(?:\?|$)`)
)

// DefaultRules returns the rule table in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Intent:   entity.IntentListEvents,
			Keywords: []string{"list events", "show events"},
			Extract:  noArgs,
		},
		{
			Intent:   entity.IntentEventDetails,
			Keywords: []string{"event details"},
			Extract:  extractEventDetails,
		},
		{
			Intent:   entity.IntentUpdateCapacity,
			Keywords: []string{"update capacity", "change capacity", "set capacity"},
			Extract:  extractCapacityUpdate,
		},
		{
			Intent:   entity.IntentTicketStatus,
			Keywords: []string{"ticket status", "tickets remaining", "how many tickets", "attendees for", "capacity for"},
			Extract:  extractTicketStatus,
		},
	}
}

type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Classifier{rules: rules}
}

// Classify lower-cases text and returns the first matching rule's intent,
// or IntentFallback when none match.
func (c *Classifier) Classify(text string) Result {
	content := strings.ToLower(text)

	for _, rule := range c.rules {
		if !rule.matches(content) {
			continue
		}
		args, err := rule.Extract(content)
		return Result{Intent: rule.Intent, Args: args, Err: err}
	}

	return Result{Intent: entity.IntentFallback}
}

func noArgs(string) (Args, error) {
	return Args{}, nil
}

func extractEventDetails(text string) (Args, error) {
	m := eventDetailsPattern.FindStringSubmatch(text)
	if m == nil {
		return Args{}, entity.ErrMissingArgument
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Args{}, entity.ErrMissingArgument
	}
	return Args{EventName: name}, nil
}

func extractCapacityUpdate(text string) (Args, error) {
	for _, p := range capacityPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			return Args{}, entity.ErrMissingArgument
		}
		capacity, err := strconv.Atoi(m[2])
		if err != nil || capacity < 0 {
			return Args{EventName: name}, entity.ErrInvalidCapacity
		}
		return Args{EventName: name, Capacity: capacity}, nil
	}
	return Args{}, entity.ErrMissingArgument
}

func extractTicketStatus(text string) (Args, error) {
	m := ticketStatusPattern.FindStringSubmatch(text)
	if m == nil {
		return Args{}, entity.ErrMissingArgument
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return Args{}, entity.ErrMissingArgument
	}
	return Args{EventName: name}, nil
}
