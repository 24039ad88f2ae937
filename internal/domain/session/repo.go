package session

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, s *Session) error
	// Latest returns nil, nil when the patient has no sessions.
	Latest(ctx context.Context, patientID uuid.UUID) (*Session, error)
	ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Session, error)
}
