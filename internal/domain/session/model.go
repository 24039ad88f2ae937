package session

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeVoice = "VOICE"
	TypeVideo = "VIDEO"
	TypeChat  = "CHAT"
)

// Session is a finished check-in. Rows are written once and never updated.
type Session struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	SessionType     string    `db:"session_type" json:"session_type"`
	StartedAt       time.Time `db:"started_at" json:"started_at"`
	EndedAt         time.Time `db:"ended_at" json:"ended_at"`
	DurationSeconds int       `db:"duration_seconds" json:"duration_seconds"`
	Summary         string    `db:"summary" json:"summary"`
	AIInsights      string    `db:"ai_insights" json:"ai_insights"`
	HeartRate       *int      `db:"heart_rate" json:"heart_rate,omitempty"`
	SpO2Level       *int      `db:"spo2_level" json:"spo2_level,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Duration in whole seconds, never negative.
func Duration(startedAt, endedAt time.Time) int {
	d := int(endedAt.Sub(startedAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}
