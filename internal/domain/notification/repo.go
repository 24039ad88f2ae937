package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification not found")

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	// ListByPatient returns the newest notifications first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Notification, error)
	UnreadCount(ctx context.Context, patientID uuid.UUID) (int, error)
	// MarkRead and Delete only match rows owned by patientID.
	MarkRead(ctx context.Context, id, patientID uuid.UUID) error
	MarkAllRead(ctx context.Context, patientID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, patientID uuid.UUID) error
}
