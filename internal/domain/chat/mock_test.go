package chat

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/platform/gemini"
)

type mockRepo struct {
	sessions map[uuid.UUID]*Session
	messages []*Message
	clock    time.Time
}

func newMockRepo() *mockRepo {
	return &mockRepo{sessions: make(map[uuid.UUID]*Session), clock: time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)}
}

func (m *mockRepo) ActiveSession(_ context.Context, patientID uuid.UUID, sessionType string) (*Session, error) {
	var found *Session
	for _, s := range m.sessions {
		if s.PatientID == patientID && s.SessionType == sessionType && s.IsActive {
			if found == nil || s.StartedAt.After(found.StartedAt) {
				found = s
			}
		}
	}
	return found, nil
}

func (m *mockRepo) CreateSession(_ context.Context, s *Session) error {
	s.ID = uuid.New()
	s.IsActive = true
	m.sessions[s.ID] = s
	return nil
}

func (m *mockRepo) DeactivateSessions(_ context.Context, patientID uuid.UUID, sessionType string, at time.Time) error {
	for _, s := range m.sessions {
		if s.PatientID == patientID && s.SessionType == sessionType && s.IsActive {
			s.IsActive = false
			ended := at
			s.EndedAt = &ended
		}
	}
	return nil
}

func (m *mockRepo) GetSession(_ context.Context, id uuid.UUID) (*Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) InsertMessage(_ context.Context, msg *Message) error {
	msg.ID = uuid.New()
	m.clock = m.clock.Add(time.Second)
	msg.CreatedAt = m.clock
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockRepo) ListMessages(_ context.Context, sessionID uuid.UUID, limit int) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockRepo) RecentByPatient(_ context.Context, patientID uuid.UUID, limit int) ([]*Message, error) {
	var out []*Message
	for _, msg := range m.messages {
		if msg.PatientID == patientID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeModel struct {
	reply   string
	err     error
	system  string
	history []gemini.Turn
	message string
	calls   int
}

func (f *fakeModel) Reply(_ context.Context, system string, history []gemini.Turn, message string) (string, error) {
	f.calls++
	f.system, f.history, f.message = system, history, message
	return f.reply, f.err
}

type fakeBriefing struct {
	text string
	err  error
}

func (f fakeBriefing) Build(context.Context, uuid.UUID) (string, error) {
	return f.text, f.err
}
