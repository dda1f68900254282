package entity

import "time"

// ChatMessage is an inbound chat message as delivered by a channel adapter.
type ChatMessage struct {
	ID        string
	Platform  string
	ChannelID string
	AuthorID  string
	Text      string
	Mentions  []string
}

// MentionsUser reports whether userID is among the message's mentioned identities.
func (m *ChatMessage) MentionsUser(userID string) bool {
	for _, id := range m.Mentions {
		if id == userID {
			return true
		}
	}
	return false
}

// CapacityChange is published to the audit trail after a successful update.
type CapacityChange struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	EventName        string    `json:"event_name"`
	PreviousCapacity *int      `json:"previous_capacity,omitempty"`
	NewCapacity      int       `json:"new_capacity"`
	RequestedBy      string    `json:"requested_by"`
	Platform         string    `json:"platform"`
	ChangedAt        time.Time `json:"changed_at"`
}
