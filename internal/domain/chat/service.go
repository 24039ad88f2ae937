package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/platform/db"
	"github.com/aegismedix/cortex/internal/platform/gemini"
)

var (
	ErrForbidden    = errors.New("chat session belongs to another patient")
	ErrEmptyMessage = errors.New("message content is required")
)

const (
	historyFetchLimit = 20
	historyTurns      = 10
	sessionMessages   = 50
)

// Model answers a conversation under a system instruction.
type Model interface {
	Reply(ctx context.Context, system string, history []gemini.Turn, message string) (string, error)
}

// ContextBuilder renders the patient briefing given to the model.
type ContextBuilder interface {
	Build(ctx context.Context, patientID uuid.UUID) (string, error)
}

type Service struct {
	repo     Repository
	model    Model
	briefing ContextBuilder
	tx       db.TxRunner
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService builds the chat service. model and briefing may be nil, in which
// case replies fall back to canned text and carry no patient context.
func NewService(repo Repository, model Model, briefing ContextBuilder, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		model:    model,
		briefing: briefing,
		tx:       tx,
		logger:   logger.With().Str("component", "chat").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) current(ctx context.Context, patientID uuid.UUID) (*Session, error) {
	sess, err := s.repo.ActiveSession(ctx, patientID, SessionTypeChat)
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	if sess != nil {
		return sess, nil
	}
	sess = &Session{PatientID: patientID, SessionType: SessionTypeChat, StartedAt: s.now()}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Current returns the active conversation, opening one if needed.
func (s *Service) Current(ctx context.Context, patientID uuid.UUID) (*Conversation, error) {
	sess, err := s.current(ctx, patientID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListMessages(ctx, sess.ID, sessionMessages)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return &Conversation{Session: sess, Messages: msgs}, nil
}

// NewSession closes any active conversation and opens a fresh one.
func (s *Service) NewSession(ctx context.Context, patientID uuid.UUID) (*Conversation, error) {
	sess := &Session{PatientID: patientID, SessionType: SessionTypeChat}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		now := s.now()
		if err := s.repo.DeactivateSessions(ctx, patientID, SessionTypeChat, now); err != nil {
			return fmt.Errorf("deactivate sessions: %w", err)
		}
		sess.StartedAt = now
		return s.repo.CreateSession(ctx, sess)
	})
	if err != nil {
		return nil, err
	}
	return &Conversation{Session: sess, Messages: []*Message{}}, nil
}

// Send stores the patient's message, asks the model for a reply with recent
// history and the patient briefing, and stores the reply.
func (s *Service) Send(ctx context.Context, patientID uuid.UUID, content string) (*Exchange, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	sess, err := s.current(ctx, patientID)
	if err != nil {
		return nil, err
	}

	userMsg := &Message{SessionID: sess.ID, PatientID: patientID, Role: RoleUser, Content: content, CreatedAt: s.now()}
	if err := s.repo.InsertMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	reply := s.reply(ctx, sess.ID, userMsg)

	aiMsg := &Message{SessionID: sess.ID, PatientID: patientID, Role: RoleAssistant, Content: reply, CreatedAt: s.now()}
	if err := s.repo.InsertMessage(ctx, aiMsg); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	return &Exchange{UserMessage: userMsg, AIMessage: aiMsg, Response: reply}, nil
}

func (s *Service) reply(ctx context.Context, sessionID uuid.UUID, userMsg *Message) string {
	log := s.logger.With().Str("patient_id", userMsg.PatientID.String()).Logger()
	if s.model == nil {
		return Fallback(userMsg.Content)
	}

	history, err := s.history(ctx, sessionID, userMsg.ID)
	if err != nil {
		log.Warn().Err(err).Msg("chat history unavailable")
	}

	var briefing string
	if s.briefing != nil {
		briefing, err = s.briefing.Build(ctx, userMsg.PatientID)
		if err != nil {
			log.Warn().Err(err).Msg("patient briefing unavailable")
			briefing = ""
		}
	}

	text, err := s.model.Reply(ctx, SystemPrompt, history, withContext(briefing, userMsg.Content))
	if err != nil {
		if errors.Is(err, gemini.ErrNotConfigured) {
			log.Debug().Msg("chat model not configured, using fallback")
		} else {
			log.Error().Err(err).Msg("chat model failed, using fallback")
		}
		return Fallback(userMsg.Content)
	}
	if strings.TrimSpace(text) == "" {
		return Fallback(userMsg.Content)
	}
	return text
}

// history returns up to the last ten turns before the message just sent.
func (s *Service) history(ctx context.Context, sessionID, exclude uuid.UUID) ([]gemini.Turn, error) {
	msgs, err := s.repo.ListMessages(ctx, sessionID, historyFetchLimit)
	if err != nil {
		return nil, err
	}
	turns := make([]gemini.Turn, 0, len(msgs))
	for _, m := range msgs {
		if m.ID == exclude {
			continue
		}
		turns = append(turns, gemini.Turn{Role: m.Role, Text: m.Content})
	}
	if len(turns) > historyTurns {
		turns = turns[len(turns)-historyTurns:]
	}
	return turns, nil
}

// History returns the messages of a session owned by patientID.
func (s *Service) History(ctx context.Context, patientID, sessionID uuid.UUID) ([]*Message, error) {
	sess, err := s.repo.GetSession(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if sess.PatientID != patientID {
		return nil, ErrForbidden
	}
	msgs, err := s.repo.ListMessages(ctx, sessionID, sessionMessages)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []*Message{}
	}
	return msgs, nil
}

// Recent returns the patient's latest messages across sessions, oldest first.
func (s *Service) Recent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Message, error) {
	return s.repo.RecentByPatient(ctx, patientID, limit)
}
