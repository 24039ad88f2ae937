package vitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/platform/websocket"
)

var ErrInvalidReading = errors.New("invalid vitals reading")

// ManualInput is a reading entered by the patient or a device bridge.
type ManualInput struct {
	HeartRate  int        `json:"heart_rate"`
	SpO2Level  int        `json:"spo2_level"`
	SleepHours float64    `json:"sleep_hours"`
	RecordedAt *time.Time `json:"recorded_at"`
}

func (in ManualInput) validate() error {
	if !Plausible(float64(in.HeartRate)) {
		return fmt.Errorf("%w: heart_rate %d out of range", ErrInvalidReading, in.HeartRate)
	}
	if in.SpO2Level < 50 || in.SpO2Level > 100 {
		return fmt.Errorf("%w: spo2_level %d out of range", ErrInvalidReading, in.SpO2Level)
	}
	if in.SleepHours < 0 || in.SleepHours > 24 {
		return fmt.Errorf("%w: sleep_hours %.1f out of range", ErrInvalidReading, in.SleepHours)
	}
	return nil
}

type Service struct {
	repo   Repository
	events websocket.Publisher
	logger zerolog.Logger
}

// NewService builds the vitals service. events may be nil.
func NewService(repo Repository, events websocket.Publisher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, events: events, logger: logger}
}

func (s *Service) Record(ctx context.Context, patientID uuid.UUID, in ManualInput) (*Reading, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	at := time.Now().UTC()
	if in.RecordedAt != nil {
		at = in.RecordedAt.UTC()
	}
	r := NewReading(patientID, in.HeartRate, in.SpO2Level, in.SleepHours, at)
	if err := s.repo.Insert(ctx, r); err != nil {
		return nil, fmt.Errorf("insert vitals: %w", err)
	}
	s.publish(ctx, r)
	return r, nil
}

func (s *Service) publish(ctx context.Context, r *Reading) {
	if s.events == nil {
		return
	}
	ev, err := websocket.NewPatientEvent(websocket.EventVitalsRecorded, r.PatientID.String(), r)
	if err == nil {
		err = s.events.Publish(ctx, ev)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", r.PatientID.String()).Msg("failed to publish vitals event")
	}
}

func (s *Service) Latest(ctx context.Context, patientID uuid.UUID) (*Reading, error) {
	return s.repo.Latest(ctx, patientID)
}

func (s *Service) History(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	items, total, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = []*Reading{}
	}
	return items, total, nil
}
