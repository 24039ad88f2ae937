package task

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("task not found")

type Repository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// ListByPatient returns the newest tasks first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Task, error)
	UpdateStatus(ctx context.Context, t *Task) error
}
