package medication

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusTaken    = "TAKEN"
	StatusMissed   = "MISSED"
	StatusUpcoming = "UPCOMING"
)

// Defaults for medications provisioned from a free-text name.
const (
	AsNeeded             = "As needed"
	DefaultScheduledTime = "12:00:00"
	RecoveryCategory     = "Recovery Advice"
)

const timeLayout = "15:04:05"

// Medication maps to the medications table. ScheduledTime is "HH:MM:SS".
type Medication struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PatientID     uuid.UUID `db:"patient_id" json:"patient_id"`
	Name          string    `db:"name" json:"name"`
	Dosage        string    `db:"dosage" json:"dosage"`
	Frequency     string    `db:"frequency" json:"frequency"`
	ScheduledTime string    `db:"scheduled_time" json:"scheduled_time"`
	Category      string    `db:"category" json:"category"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Log maps to medication_logs. Logs are immutable; untake deletes them.
type Log struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	Status       string    `db:"status" json:"status"`
	ScheduledFor time.Time `db:"scheduled_for" json:"scheduled_for"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ScheduleEntry is one row of today's schedule.
type ScheduleEntry struct {
	ID           string      `json:"id"`
	MedicationID uuid.UUID   `json:"medication_id"`
	Medication   *Medication `json:"medication"`
	Status       string      `json:"status"`
	ScheduledFor time.Time   `json:"scheduled_for"`
}

// NormalizeTime accepts "HH:MM" or "HH:MM:SS" and returns "HH:MM:SS".
func NormalizeTime(s string) (string, bool) {
	for _, layout := range []string{timeLayout, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(timeLayout), true
		}
	}
	return "", false
}

// At returns the medication's scheduled time on day's date, in day's location.
// An unparsable time falls back to day itself.
func (m *Medication) At(day time.Time) time.Time {
	t, err := time.Parse(timeLayout, m.ScheduledTime)
	if err != nil {
		return day
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, day.Location())
}

// HHMM is the scheduled hour and minute, used for reminder matching.
func (m *Medication) HHMM() string {
	if len(m.ScheduledTime) < 5 {
		return m.ScheduledTime
	}
	return m.ScheduledTime[:5]
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
