package chat

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	SessionTypeChat = "CHAT"
)

// Session groups the messages of one conversation. A patient has at most one
// active session per type.
type Session struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PatientID   uuid.UUID  `db:"patient_id" json:"patient_id"`
	SessionType string     `db:"session_type" json:"session_type"`
	IsActive    bool       `db:"is_active" json:"is_active"`
	StartedAt   time.Time  `db:"started_at" json:"started_at"`
	EndedAt     *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Role      string    `db:"role" json:"role"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Conversation is a session with its messages in chronological order.
type Conversation struct {
	Session  *Session   `json:"session"`
	Messages []*Message `json:"messages"`
}

// Exchange is the result of sending one message.
type Exchange struct {
	UserMessage *Message `json:"user_message"`
	AIMessage   *Message `json:"ai_message"`
	Response    string   `json:"response"`
}
