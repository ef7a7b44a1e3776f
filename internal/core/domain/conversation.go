package domain

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant
}

// ConversationTurn is one message in a session's conversation.
// Turns are append-only; insertion order is time order.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current time
func NewTurn(role Role, content string) ConversationTurn {
	return ConversationTurn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// Format renders the turn as "role: content"
func (t ConversationTurn) Format() string {
	return string(t.Role) + ": " + t.Content
}

// StoredMessage is one row of durable conversation history
type StoredMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn converts the stored message to a conversation turn
func (m *StoredMessage) Turn() ConversationTurn {
	return ConversationTurn{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt}
}

// SortOrder selects ascending or descending creation order
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// DefaultSessionTitle is the title of a session nobody has named yet
const DefaultSessionTitle = "New Chat"

// MaxTitleLength bounds generated session titles
const MaxTitleLength = 50

// ChatSession is the user-visible record of a conversation
type ChatSession struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CleanTitle trims whitespace and surrounding quotes from a generated title
// and truncates it to MaxTitleLength characters.
func CleanTitle(raw string) string {
	title := strings.Trim(strings.TrimSpace(raw), `"'`)
	title = strings.TrimSpace(title)

	runes := []rune(title)
	if len(runes) > MaxTitleLength {
		title = string(runes[:MaxTitleLength-3]) + "..."
	}
	return title
}
