package reconcile

import (
	"errors"

	"github.com/google/uuid"
)

// ErrPersistence is returned when the session record itself cannot be
// written. It is the only failure surfaced by Run.
var ErrPersistence = errors.New("session persistence failed")

// FailureKind classifies what went wrong in one step of a pass.
type FailureKind string

const (
	KindNone                         FailureKind = "none"
	KindExtractionDegraded           FailureKind = "extraction_degraded"
	KindVitalsImplausible            FailureKind = "vitals_implausible"
	KindReconciliationSubtaskFailure FailureKind = "reconciliation_subtask_failure"
	KindPersistenceFailure           FailureKind = "persistence_failure"
)

// Step names.
const (
	StepExtract     = "extract"
	StepVitals      = "vitals"
	StepMedications = "medications"
	StepRecovery    = "recovery"
	StepSession     = "session"
	StepActivity    = "activity"
)

// StepResult records the outcome of one step. Detail may carry raw store or
// model errors and is only logged, never serialized.
type StepResult struct {
	Step   string      `json:"step"`
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"-"`
}

// Result mirrors what a pass committed. Vitals holds only values that were
// written; Diagnosis and Protocol are nil when the model reported none.
type Result struct {
	SessionID   uuid.UUID          `json:"session_id"`
	Summary     string             `json:"summary"`
	Insights    string             `json:"insights"`
	Vitals      map[string]float64 `json:"vitals"`
	Medications []MedicationEvent  `json:"medications"`
	Diagnosis   *string            `json:"diagnosis"`
	Protocol    *string            `json:"protocol"`
	Steps       []StepResult       `json:"steps"`
}

// Failed reports whether any step recorded a failure.
func (r *Result) Failed() bool {
	for _, s := range r.Steps {
		if s.Kind != KindNone {
			return true
		}
	}
	return false
}
