package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("patient not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	UpdateProfile(ctx context.Context, p *Patient) error
	UpdateRecovery(ctx context.Context, id uuid.UUID, u RecoveryUpdate) error
	ResetRecoveryStart(ctx context.Context, id uuid.UUID, at time.Time) error
	ClearRecovery(ctx context.Context, id uuid.UUID) error
	ListReminderEnabled(ctx context.Context) ([]*Patient, error)
}
