package activity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Entry, error)
}
