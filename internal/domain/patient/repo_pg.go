package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const patientCols = `id, COALESCE(email, ''), full_name, phone, emergency_contact, emergency_number,
	blood_type, allergies, avatar_url, date_of_birth,
	email_reminders_enabled, in_app_reminders_enabled,
	diagnosis, recovery_protocol, recovery_start_date, recovery_duration_days,
	created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.Phone, &p.EmergencyContact, &p.EmergencyNumber,
		&p.BloodType, &p.Allergies, &p.AvatarURL, &p.DateOfBirth,
		&p.EmailRemindersEnabled, &p.InAppRemindersEnabled,
		&p.Diagnosis, &p.RecoveryProtocol, &p.RecoveryStartDate, &p.RecoveryDurationDays,
		&p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *repoPG) UpdateProfile(ctx context.Context, p *Patient) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET
			full_name = $2, phone = $3, emergency_contact = $4, emergency_number = $5,
			blood_type = $6, allergies = $7, avatar_url = $8, date_of_birth = $9,
			email_reminders_enabled = $10, in_app_reminders_enabled = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.EmergencyContact, p.EmergencyNumber,
		p.BloodType, p.Allergies, p.AvatarURL, p.DateOfBirth,
		p.EmailRemindersEnabled, p.InAppRemindersEnabled, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRecovery writes only the non-nil fields of u.
func (r *repoPG) UpdateRecovery(ctx context.Context, id uuid.UUID, u RecoveryUpdate) error {
	if u.Empty() {
		return nil
	}
	sets := []string{}
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.Diagnosis != nil {
		add("diagnosis", *u.Diagnosis)
	}
	if u.RecoveryProtocol != nil {
		add("recovery_protocol", *u.RecoveryProtocol)
	}
	if u.RecoveryStartDate != nil {
		add("recovery_start_date", *u.RecoveryStartDate)
	}
	if u.RecoveryDurationDays != nil {
		add("recovery_duration_days", *u.RecoveryDurationDays)
	}
	add("updated_at", time.Now().UTC())

	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE patients SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ResetRecoveryStart(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE patients SET recovery_start_date = $2, updated_at = now() WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ClearRecovery(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET
			diagnosis = NULL, recovery_protocol = NULL,
			recovery_start_date = NULL, recovery_duration_days = NULL,
			updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListReminderEnabled(ctx context.Context) ([]*Patient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientCols+` FROM patients
		WHERE email_reminders_enabled OR in_app_reminders_enabled
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
