package notification

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	items map[uuid.UUID]*Notification
	seq   int
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Notification)}
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	n.ID = uuid.New()
	m.seq++
	n.CreatedAt = time.Date(2026, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.items[n.ID] = n
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*Notification, error) {
	var out []*Notification
	for _, n := range m.items {
		if n.PatientID == patientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) UnreadCount(_ context.Context, patientID uuid.UUID) (int, error) {
	n := 0
	for _, item := range m.items {
		if item.PatientID == patientID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) MarkRead(_ context.Context, id, patientID uuid.UUID) error {
	n, ok := m.items[id]
	if !ok || n.PatientID != patientID {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

func (m *mockRepo) MarkAllRead(_ context.Context, patientID uuid.UUID) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.PatientID == patientID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) Delete(_ context.Context, id, patientID uuid.UUID) error {
	n, ok := m.items[id]
	if !ok || n.PatientID != patientID {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}
