package session

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

const sessionCols = `id, patient_id, session_type, started_at, ended_at, duration_seconds,
	summary, ai_insights, heart_rate, spo2_level, created_at`

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.PatientID, &s.SessionType, &s.StartedAt, &s.EndedAt, &s.DurationSeconds,
		&s.Summary, &s.AIInsights, &s.HeartRate, &s.SpO2Level, &s.CreatedAt)
	return &s, err
}

func (r *repoPG) Insert(ctx context.Context, s *Session) error {
	s.ID = uuid.New()
	s.CreatedAt = time.Now().UTC()
	if s.SessionType == "" {
		s.SessionType = TypeVoice
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO sessions (`+sessionCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.PatientID, s.SessionType, s.StartedAt, s.EndedAt, s.DurationSeconds,
		s.Summary, s.AIInsights, s.HeartRate, s.SpO2Level, s.CreatedAt)
	return err
}

func (r *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Session, error) {
	s, err := scanSession(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE patient_id = $1 ORDER BY started_at DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repoPG) ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*Session, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+sessionCols+` FROM sessions WHERE patient_id = $1
		ORDER BY started_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
