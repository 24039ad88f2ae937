package medication

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("medication not found")
	ErrLogNotFound = errors.New("medication log not found")
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	// ListByPatient orders by scheduled_time, then created_at.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Medication, error)
	Delete(ctx context.Context, id, patientID uuid.UUID) error

	InsertLog(ctx context.Context, l *Log) error
	GetLog(ctx context.Context, id uuid.UUID) (*Log, error)
	DeleteLog(ctx context.Context, id uuid.UUID) error
	// ListLogsSince returns the patient's logs scheduled at or after since.
	ListLogsSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*Log, error)
	// HasLogSince reports whether a log was created for the medication after since.
	HasLogSince(ctx context.Context, medicationID uuid.UUID, since time.Time) (bool, error)
}
