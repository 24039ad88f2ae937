package medication

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
)

type mockRepo struct {
	meds map[uuid.UUID]*Medication
	logs map[uuid.UUID]*Log
	seq  int
}

func newMockRepo() *mockRepo {
	return &mockRepo{meds: make(map[uuid.UUID]*Medication), logs: make(map[uuid.UUID]*Log)}
}

func (m *mockRepo) Create(_ context.Context, med *Medication) error {
	med.ID = uuid.New()
	m.seq++
	med.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.meds[med.ID] = med
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Medication, error) {
	med, ok := m.meds[id]
	if !ok {
		return nil, ErrNotFound
	}
	return med, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Medication, error) {
	var out []*Medication
	for _, med := range m.meds {
		if med.PatientID == patientID {
			out = append(out, med)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScheduledTime != out[j].ScheduledTime {
			return out[i].ScheduledTime < out[j].ScheduledTime
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, id, patientID uuid.UUID) error {
	med, ok := m.meds[id]
	if !ok || med.PatientID != patientID {
		return ErrNotFound
	}
	delete(m.meds, id)
	return nil
}

func (m *mockRepo) InsertLog(_ context.Context, l *Log) error {
	l.ID = uuid.New()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = l.ScheduledFor
	}
	m.logs[l.ID] = l
	return nil
}

func (m *mockRepo) GetLog(_ context.Context, id uuid.UUID) (*Log, error) {
	l, ok := m.logs[id]
	if !ok {
		return nil, ErrLogNotFound
	}
	return l, nil
}

func (m *mockRepo) DeleteLog(_ context.Context, id uuid.UUID) error {
	if _, ok := m.logs[id]; !ok {
		return ErrLogNotFound
	}
	delete(m.logs, id)
	return nil
}

func (m *mockRepo) ListLogsSince(_ context.Context, patientID uuid.UUID, since time.Time) ([]*Log, error) {
	var out []*Log
	for _, l := range m.logs {
		if l.PatientID == patientID && !l.ScheduledFor.Before(since) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledFor.Before(out[j].ScheduledFor) })
	return out, nil
}

func (m *mockRepo) HasLogSince(_ context.Context, medicationID uuid.UUID, since time.Time) (bool, error) {
	for _, l := range m.logs {
		if l.MedicationID == medicationID && l.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

type mockActivity struct {
	entries []*activity.Entry
}

func (a *mockActivity) Append(_ context.Context, e *activity.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}
