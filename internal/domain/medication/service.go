package medication

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/platform/db"
)

var ErrInvalid = errors.New("invalid medication")

// ActivityRecorder appends to the patient's activity trail.
type ActivityRecorder interface {
	Append(ctx context.Context, e *activity.Entry) error
}

type Service struct {
	repo     Repository
	activity ActivityRecorder
	tx       db.TxRunner
	now      func() time.Time
}

func NewService(repo Repository, act ActivityRecorder, tx db.TxRunner) *Service {
	return &Service{repo: repo, activity: act, tx: tx, now: time.Now}
}

func (s *Service) Create(ctx context.Context, m *Medication) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if m.ScheduledTime == "" {
		m.ScheduledTime = "09:00:00"
	}
	t, ok := NormalizeTime(m.ScheduledTime)
	if !ok {
		return fmt.Errorf("%w: scheduled_time must be HH:MM or HH:MM:SS", ErrInvalid)
	}
	m.ScheduledTime = t
	return s.repo.Create(ctx, m)
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	meds, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if meds == nil {
		meds = []*Medication{}
	}
	return meds, nil
}

// Today merges the patient's medications with today's logs. A logged
// medication shows its first log of the day; the rest appear as UPCOMING at
// today's scheduled time.
func (s *Service) Today(ctx context.Context, patientID uuid.UUID) ([]*ScheduleEntry, error) {
	now := s.now()
	meds, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	logs, err := s.repo.ListLogsSince(ctx, patientID, StartOfDay(now))
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}

	first := make(map[uuid.UUID]*Log, len(logs))
	for _, l := range logs {
		if _, seen := first[l.MedicationID]; !seen {
			first[l.MedicationID] = l
		}
	}

	schedule := make([]*ScheduleEntry, 0, len(meds))
	for _, m := range meds {
		if l, ok := first[m.ID]; ok {
			schedule = append(schedule, &ScheduleEntry{
				ID:           l.ID.String(),
				MedicationID: m.ID,
				Medication:   m,
				Status:       l.Status,
				ScheduledFor: l.ScheduledFor,
			})
			continue
		}
		schedule = append(schedule, &ScheduleEntry{
			ID:           "pending_" + m.ID.String(),
			MedicationID: m.ID,
			Medication:   m,
			Status:       StatusUpcoming,
			ScheduledFor: m.At(now),
		})
	}
	sort.SliceStable(schedule, func(i, j int) bool {
		return schedule[i].ScheduledFor.Before(schedule[j].ScheduledFor)
	})
	return schedule, nil
}

// LogTaken records a TAKEN log for one of the patient's medications together
// with a "Medication Taken" activity entry.
func (s *Service) LogTaken(ctx context.Context, patientID, medicationID uuid.UUID) (*Log, error) {
	m, err := s.repo.GetByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if m.PatientID != patientID {
		return nil, ErrNotFound
	}
	return s.logTaken(ctx, m)
}

func (s *Service) logTaken(ctx context.Context, m *Medication) (*Log, error) {
	now := s.now()
	l := &Log{
		PatientID:    m.PatientID,
		MedicationID: m.ID,
		Status:       StatusTaken,
		ScheduledFor: now,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.InsertLog(ctx, l); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		return s.activity.Append(ctx, &activity.Entry{
			PatientID:   m.PatientID,
			EventType:   activity.EventMedication,
			Title:       "Medication Taken",
			Description: "Took " + m.Name,
			Severity:    activity.SeverityInfo,
		})
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// AddAndLog provisions an as-needed medication from a free-text name and logs
// it as taken.
func (s *Service) AddAndLog(ctx context.Context, patientID uuid.UUID, name, dosage string) (*Medication, *Log, error) {
	if dosage == "" {
		dosage = AsNeeded
	}
	m := &Medication{
		PatientID:     patientID,
		Name:          name,
		Dosage:        dosage,
		Frequency:     AsNeeded,
		ScheduledTime: DefaultScheduledTime,
		Category:      RecoveryCategory,
	}
	var l *Log
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.Create(ctx, m); err != nil {
			return err
		}
		var err error
		l, err = s.logTaken(ctx, m)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return m, l, nil
}

func (s *Service) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	return s.repo.Delete(ctx, id, patientID)
}

func (s *Service) GetLog(ctx context.Context, id uuid.UUID) (*Log, error) {
	return s.repo.GetLog(ctx, id)
}

// Untake removes a log entry.
func (s *Service) Untake(ctx context.Context, logID uuid.UUID) error {
	return s.repo.DeleteLog(ctx, logID)
}
