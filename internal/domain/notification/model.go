package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeInfo     = "INFO"
	TypeReminder = "REMINDER"
	TypeAlert    = "ALERT"
)

// Notification maps to the notifications table. It is the patient's in-app inbox.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
