package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	patients map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{patients: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) add(p *Patient) *Patient {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	m.patients[p.ID] = p
	return p
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) UpdateProfile(_ context.Context, p *Patient) error {
	if _, ok := m.patients[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	m.patients[p.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateRecovery(_ context.Context, id uuid.UUID, u RecoveryUpdate) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	if u.Diagnosis != nil {
		p.Diagnosis = u.Diagnosis
	}
	if u.RecoveryProtocol != nil {
		p.RecoveryProtocol = u.RecoveryProtocol
	}
	if u.RecoveryStartDate != nil {
		p.RecoveryStartDate = u.RecoveryStartDate
	}
	if u.RecoveryDurationDays != nil {
		p.RecoveryDurationDays = u.RecoveryDurationDays
	}
	return nil
}

func (m *mockRepo) ResetRecoveryStart(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.RecoveryStartDate = &at
	return nil
}

func (m *mockRepo) ClearRecovery(_ context.Context, id uuid.UUID) error {
	p, ok := m.patients[id]
	if !ok {
		return ErrNotFound
	}
	p.Diagnosis, p.RecoveryProtocol, p.RecoveryStartDate, p.RecoveryDurationDays = nil, nil, nil, nil
	return nil
}

func (m *mockRepo) ListReminderEnabled(_ context.Context) ([]*Patient, error) {
	var out []*Patient
	for _, p := range m.patients {
		if p.EmailRemindersEnabled || p.InAppRemindersEnabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func strPtr(s string) *string { return &s }
