package vitals

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

const readingCols = `id, patient_id, heart_rate, heart_rate_status, spo2_level, spo2_status,
	sleep_hours, sleep_status, recorded_at`

func scanReading(row pgx.Row) (*Reading, error) {
	var r Reading
	err := row.Scan(&r.ID, &r.PatientID, &r.HeartRate, &r.HeartRateStatus, &r.SpO2Level, &r.SpO2Status,
		&r.SleepHours, &r.SleepStatus, &r.RecordedAt)
	return &r, err
}

func (p *repoPG) Insert(ctx context.Context, r *Reading) error {
	r.ID = uuid.New()
	if r.RecordedAt.IsZero() {
		r.RecordedAt = time.Now().UTC()
	}
	_, err := db.Conn(ctx, p.pool).Exec(ctx, `
		INSERT INTO vitals (`+readingCols+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.PatientID, r.HeartRate, r.HeartRateStatus, r.SpO2Level, r.SpO2Status,
		r.SleepHours, r.SleepStatus, r.RecordedAt)
	return err
}

func (p *repoPG) Latest(ctx context.Context, patientID uuid.UUID) (*Reading, error) {
	r, err := scanReading(db.Conn(ctx, p.pool).QueryRow(ctx,
		`SELECT `+readingCols+` FROM vitals WHERE patient_id = $1 ORDER BY recorded_at DESC LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (p *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := db.Conn(ctx, p.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM vitals WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Conn(ctx, p.pool).Query(ctx,
		`SELECT `+readingCols+` FROM vitals WHERE patient_id = $1
		ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}
