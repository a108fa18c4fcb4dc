package scene

import (
	"time"

	"github.com/google/uuid"
)

const (
	SpeakerUser      = "user"
	SpeakerCharacter = "character"
)

// Message is a single entry in a conversation's history, as recorded by the
// host chat application.
type Message struct {
	Role    string `json:"role"` // "user" or "character"
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Character describes a roleplay character active in a conversation.
type Character struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
	Scenario    string `json:"scenario,omitempty"`
}

// Conversation is the host-side view of a chat session: message history and
// the roster of characters in scene. The gatekeeper never writes to it; the
// GM document is kept separately, keyed by the conversation ID.
type Conversation struct {
	ID         uuid.UUID   `json:"id"`
	Characters []Character `json:"characters,omitempty"`
	Messages   []Message   `json:"messages,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func NewConversation(characters []Character) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:         uuid.New(),
		Characters: characters,
		Messages:   make([]Message, 0),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Append adds a message to the history.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now().UTC()
}

// Roster returns the characters in scene, de-duplicated by name. In a group
// conversation the host may list the same character under multiple entries.
func (c *Conversation) Roster() []Character {
	seen := make(map[string]bool, len(c.Characters))
	roster := make([]Character, 0, len(c.Characters))
	for _, ch := range c.Characters {
		if ch.Name == "" || seen[ch.Name] {
			continue
		}
		seen[ch.Name] = true
		roster = append(roster, ch)
	}
	return roster
}

// RecentMessages returns up to limit of the most recent messages, oldest
// first.
func (c *Conversation) RecentMessages(limit int) []Message {
	if limit <= 0 || len(c.Messages) <= limit {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-limit:]
}
