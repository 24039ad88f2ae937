package vitals

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusStable   = "STABLE"
	StatusElevated = "ELEVATED"
	StatusOptimal  = "OPTIMAL"
	StatusLow      = "LOW"
	StatusGood     = "GOOD"
	StatusFair     = "FAIR"
)

// Fallbacks used when neither an extracted nor a previous value exists.
const (
	DefaultHeartRate  = 70
	DefaultSpO2       = 98
	DefaultSleepHours = 8.0
)

// Reading maps to the vitals table. Readings are never updated.
type Reading struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	HeartRate       int       `db:"heart_rate" json:"heart_rate"`
	HeartRateStatus string    `db:"heart_rate_status" json:"heart_rate_status"`
	SpO2Level       int       `db:"spo2_level" json:"spo2_level"`
	SpO2Status      string    `db:"spo2_status" json:"spo2_status"`
	SleepHours      float64   `db:"sleep_hours" json:"sleep_hours"`
	SleepStatus     string    `db:"sleep_status" json:"sleep_status"`
	RecordedAt      time.Time `db:"recorded_at" json:"recorded_at"`
}

// NewReading builds a reading with its status labels derived at write time.
func NewReading(patientID uuid.UUID, heartRate, spo2 int, sleep float64, at time.Time) *Reading {
	return &Reading{
		PatientID:       patientID,
		HeartRate:       heartRate,
		HeartRateStatus: HeartRateStatus(heartRate),
		SpO2Level:       spo2,
		SpO2Status:      SpO2Status(spo2),
		SleepHours:      sleep,
		SleepStatus:     SleepStatus(sleep),
		RecordedAt:      at,
	}
}

func HeartRateStatus(hr int) string {
	if hr >= 60 && hr <= 100 {
		return StatusStable
	}
	return StatusElevated
}

func SpO2Status(spo2 int) string {
	if spo2 >= 95 {
		return StatusOptimal
	}
	return StatusLow
}

func SleepStatus(hours float64) string {
	if hours >= 7 {
		return StatusGood
	}
	return StatusFair
}

// Plausible is the commit gate for model-extracted readings. It takes the
// unrounded value so that fractional rates near the bounds are judged as
// reported.
func Plausible(heartRate float64) bool {
	return heartRate > 30 && heartRate < 200
}
