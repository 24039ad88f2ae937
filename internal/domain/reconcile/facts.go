package reconcile

// Vitals keys the extractor understands.
const (
	VitalHeartRate  = "heart_rate"
	VitalSpO2       = "spo2_level"
	VitalSleepHours = "sleep_hours"
)

// Medication event statuses reported by the model.
const (
	EventTaken  = "TAKEN"
	EventMissed = "MISSED"
	EventNew    = "NEW"
)

const noneValue = "None"

// MedicationEvent is one medication mention extracted from a transcript.
type MedicationEvent struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

// Facts is the parsed model output for one session. Vitals only holds keys
// the model reported with a numeric value.
type Facts struct {
	Summary     string             `json:"summary"`
	Insights    string             `json:"insights"`
	Vitals      map[string]float64 `json:"vitals"`
	Medications []MedicationEvent  `json:"medications"`
	Diagnosis   string             `json:"diagnosis"`
	Protocol    string             `json:"protocol"`
}

func degraded(summary, insights string) Facts {
	return Facts{
		Summary:     summary,
		Insights:    insights,
		Vitals:      map[string]float64{},
		Medications: []MedicationEvent{},
		Diagnosis:   noneValue,
		Protocol:    noneValue,
	}
}

func shortSessionFacts() Facts { return degraded("Short session.", "No significant insights.") }
func notConfiguredFacts() Facts { return degraded("Summary unavailable", "API Key missing") }
func modelErrorFacts() Facts { return degraded("Processing error", "Could not generate insights.") }
func parseErrorFacts() Facts { return degraded("Session processed.", "Could not extract structured data.") }
