package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNoDiagnosis is returned when a timeline reset is requested for a
// patient without a diagnosis.
var ErrNoDiagnosis = errors.New("no active diagnosis")

var ErrInvalidProfile = errors.New("invalid profile")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, u *ProfileUpdate) (*Patient, error) {
	if u.FullName != nil && strings.TrimSpace(*u.FullName) == "" {
		return nil, fmt.Errorf("%w: full_name cannot be empty", ErrInvalidProfile)
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.apply(p)
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// ResetRecovery restarts the recovery timeline at now.
func (s *Service) ResetRecovery(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasDiagnosis() {
		return nil, ErrNoDiagnosis
	}
	now := s.now()
	if err := s.repo.ResetRecoveryStart(ctx, id, now); err != nil {
		return nil, fmt.Errorf("reset recovery: %w", err)
	}
	p.RecoveryStartDate = &now
	return p, nil
}

func (s *Service) ClearRecovery(ctx context.Context, id uuid.UUID) error {
	return s.repo.ClearRecovery(ctx, id)
}
