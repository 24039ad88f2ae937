package medication

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

const medCols = `id, patient_id, name, dosage, frequency, scheduled_time::text, category, created_at`

func scanMed(row pgx.Row) (*Medication, error) {
	var m Medication
	err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Frequency, &m.ScheduledTime, &m.Category, &m.CreatedAt)
	return &m, err
}

const logCols = `id, patient_id, medication_id, status, scheduled_for, created_at`

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	err := row.Scan(&l.ID, &l.PatientID, &l.MedicationID, &l.Status, &l.ScheduledFor, &l.CreatedAt)
	return &l, err
}

func (r *repoPG) Create(ctx context.Context, m *Medication) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now().UTC()
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medications (id, patient_id, name, dosage, frequency, scheduled_time, category, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::time, $7, $8)`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Frequency, m.ScheduledTime, m.Category, m.CreatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := scanMed(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+medCols+` FROM medications WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Medication, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+medCols+` FROM medications WHERE patient_id = $1
		ORDER BY scheduled_time, created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Medication
	for rows.Next() {
		m, err := scanMed(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repoPG) Delete(ctx context.Context, id, patientID uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM medications WHERE id = $1 AND patient_id = $2`, id, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) InsertLog(ctx context.Context, l *Log) error {
	l.ID = uuid.New()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO medication_logs (`+logCols+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		l.ID, l.PatientID, l.MedicationID, l.Status, l.ScheduledFor, l.CreatedAt)
	return err
}

func (r *repoPG) GetLog(ctx context.Context, id uuid.UUID) (*Log, error) {
	l, err := scanLog(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+logCols+` FROM medication_logs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLogNotFound
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *repoPG) DeleteLog(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM medication_logs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLogNotFound
	}
	return nil
}

func (r *repoPG) ListLogsSince(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*Log, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+logCols+` FROM medication_logs
		WHERE patient_id = $1 AND scheduled_for >= $2
		ORDER BY scheduled_for`, patientID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *repoPG) HasLogSince(ctx context.Context, medicationID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM medication_logs WHERE medication_id = $1 AND created_at > $2)`,
		medicationID, since).Scan(&exists)
	return exists, err
}
