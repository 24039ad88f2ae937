package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends one entry. Severity defaults to INFO.
func (s *Service) Record(ctx context.Context, patientID uuid.UUID, eventType, title, description, severity string) (*Entry, error) {
	e := &Entry{
		PatientID:   patientID,
		EventType:   strings.ToUpper(strings.TrimSpace(eventType)),
		Title:       strings.TrimSpace(title),
		Description: description,
		Severity:    strings.ToUpper(strings.TrimSpace(severity)),
	}
	if err := s.Append(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Append(ctx context.Context, e *Entry) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if e.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.Severity == "" {
		e.Severity = SeverityInfo
	}
	if !validSeverities[e.Severity] {
		return fmt.Errorf("invalid severity: %s", e.Severity)
	}
	return s.repo.Append(ctx, e)
}

func (s *Service) ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	entries, err := s.repo.ListRecent(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return entries, nil
}
