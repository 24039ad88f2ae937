package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aegismedix/cortex/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const sessionCols = `id, patient_id, session_type, is_active, started_at, ended_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.PatientID, &s.SessionType, &s.IsActive, &s.StartedAt, &s.EndedAt)
	return &s, err
}

const messageCols = `id, session_id, patient_id, role, content, created_at`

func scanMessages(rows pgx.Rows) ([]*Message, error) {
	defer rows.Close()
	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.PatientID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (r *repoPG) ActiveSession(ctx context.Context, patientID uuid.UUID, sessionType string) (*Session, error) {
	s, err := scanSession(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+sessionCols+` FROM chat_sessions
		WHERE patient_id = $1 AND session_type = $2 AND is_active
		ORDER BY started_at DESC LIMIT 1`, patientID, sessionType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) CreateSession(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	s.IsActive = true
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO chat_sessions (`+sessionCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.PatientID, s.SessionType, s.IsActive, s.StartedAt, s.EndedAt)
	return err
}

func (r *repoPG) DeactivateSessions(ctx context.Context, patientID uuid.UUID, sessionType string, at time.Time) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE chat_sessions SET is_active = FALSE, ended_at = $3
		WHERE patient_id = $1 AND session_type = $2 AND is_active`, patientID, sessionType, at)
	return err
}

func (r *repoPG) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	s, err := scanSession(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM chat_sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) InsertMessage(ctx context.Context, m *Message) error {
	m.ID = uuid.New()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO chat_messages (`+messageCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.SessionID, m.PatientID, m.Role, m.Content, m.CreatedAt)
	return err
}

func (r *repoPG) ListMessages(ctx context.Context, sessionID uuid.UUID, limit int) ([]*Message, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+messageCols+` FROM chat_messages
		WHERE session_id = $1
		ORDER BY created_at ASC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}

func (r *repoPG) RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Message, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT `+messageCols+` FROM (
			SELECT `+messageCols+` FROM chat_messages
			WHERE patient_id = $1
			ORDER BY created_at DESC LIMIT $2
		) recent ORDER BY created_at ASC`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return scanMessages(rows)
}
