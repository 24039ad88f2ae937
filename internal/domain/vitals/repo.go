package vitals

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, r *Reading) error
	// Latest returns nil, nil when the patient has no readings.
	Latest(ctx context.Context, patientID uuid.UUID) (*Reading, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error)
}
