package activity

import (
	"time"

	"github.com/google/uuid"
)

// Event types written to the activity trail.
const (
	EventSensor     = "SENSOR"
	EventMedication = "MEDICATION"
	EventSession    = "SESSION"
	EventReminder   = "REMINDER"
	EventMessage    = "MESSAGE"
)

const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Entry maps to the activity_logs table. Entries are append-only.
type Entry struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	EventType   string    `db:"event_type" json:"event_type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Severity    string    `db:"severity" json:"severity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

var validSeverities = map[string]bool{
	SeverityInfo: true, SeverityWarning: true, SeverityCritical: true,
}
