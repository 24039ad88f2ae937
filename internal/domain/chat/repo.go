package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("chat session not found")

type Repository interface {
	// ActiveSession returns nil, nil when the patient has no active session.
	ActiveSession(ctx context.Context, patientID uuid.UUID, sessionType string) (*Session, error)
	CreateSession(ctx context.Context, s *Session) error
	DeactivateSessions(ctx context.Context, patientID uuid.UUID, sessionType string, at time.Time) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)

	InsertMessage(ctx context.Context, m *Message) error
	// ListMessages returns the oldest limit messages of a session, oldest first.
	ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*Message, error)
	// RecentByPatient returns the newest limit messages across all sessions,
	// oldest first.
	RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Message, error)
}
