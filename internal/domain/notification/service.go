package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

var ErrInvalid = errors.New("invalid notification")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Notify adds an unread entry to the patient's inbox. Type defaults to INFO.
func (s *Service) Notify(ctx context.Context, patientID uuid.UUID, title, message, kind string) (*Notification, error) {
	n := &Notification{
		PatientID: patientID,
		Title:     strings.TrimSpace(title),
		Message:   message,
		Type:      strings.ToUpper(strings.TrimSpace(kind)),
	}
	if n.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: patient_id is required", ErrInvalid)
	}
	if n.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if n.Type == "" {
		n.Type = TypeInfo
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID, limit int) ([]*Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	items, err := s.repo.ListByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*Notification{}
	}
	return items, nil
}

func (s *Service) UnreadCount(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.UnreadCount(ctx, patientID)
}

func (s *Service) MarkRead(ctx context.Context, id, patientID uuid.UUID) error {
	return s.repo.MarkRead(ctx, id, patientID)
}

func (s *Service) MarkAllRead(ctx context.Context, patientID uuid.UUID) (int, error) {
	return s.repo.MarkAllRead(ctx, patientID)
}

func (s *Service) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	return s.repo.Delete(ctx, id, patientID)
}
