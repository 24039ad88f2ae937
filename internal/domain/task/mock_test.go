package task

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
)

type mockRepo struct {
	tasks map[uuid.UUID]*Task
	seq   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{tasks: make(map[uuid.UUID]*Task)}
}

func (m *mockRepo) Create(_ context.Context, t *Task) error {
	t.ID = uuid.New()
	m.seq++
	t.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	t.UpdatedAt = t.CreatedAt
	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Task, error) {
	var out []*Task
	for _, t := range m.tasks {
		if t.PatientID == patientID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, t *Task) error {
	stored, ok := m.tasks[t.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = t.Status
	return nil
}

type mockActivity struct {
	entries []*activity.Entry
}

func (a *mockActivity) Append(_ context.Context, e *activity.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}
