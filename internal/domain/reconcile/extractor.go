package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/platform/gemini"
)

// Model is the fact-extraction endpoint.
type Model interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}

// DefaultMinTranscriptChars is the short-session threshold.
const DefaultMinTranscriptChars = 20

// SchemaHint is the JSON shape requested from the model.
const SchemaHint = `{
  "summary": "1-sentence summary",
  "insights": "Key bullet points",
  "vitals": {"heart_rate": null, "spo2_level": null, "sleep_hours": null},
  "medications": [{"name": "Medicine", "status": "TAKEN/MISSED/NEW", "notes": "..."}],
  "diagnosis": "Condition Name or 'None'",
  "protocol": "Suggested recovery steps or 'None'"
}`

const promptTemplate = `Analyze this medical consultation transcript between a patient and Dr. Aegis.

TRANSCRIPT:
%s

TASK:
1. Summarize the session.
2. Extract key medical insights.
3. Extract vitals if mentioned. Output numbers only: heart_rate (bpm), spo2_level (%%), sleep_hours (hours). Use null when not mentioned.
4. List every medication mentioned with status TAKEN, MISSED or NEW.
5. If the patient mentions symptoms (fever, pain, etc.), infer a short diagnosis (e.g. "Mild Fever") and a 1-2 sentence recovery protocol. If no new sickness is mentioned, use 'None' for both.

Respond with JSON only.`

var fenceRE = regexp.MustCompile("```(?:json|JSON)?")

// Extractor turns a transcript into Facts. It never fails: every error
// degrades to a fixed result and a non-None kind.
type Extractor struct {
	Model    Model
	MinChars int
	Logger   zerolog.Logger
}

func (x *Extractor) minChars() int {
	if x.MinChars > 0 {
		return x.MinChars
	}
	return DefaultMinTranscriptChars
}

func (x *Extractor) Extract(ctx context.Context, transcript string) (Facts, StepResult) {
	step := StepResult{Step: StepExtract, Kind: KindNone}

	if utf8.RuneCountInString(strings.TrimSpace(transcript)) < x.minChars() {
		step.Detail = "short session"
		return shortSessionFacts(), step
	}
	if x.Model == nil {
		step.Kind, step.Detail = KindExtractionDegraded, "model not configured"
		return notConfiguredFacts(), step
	}

	raw, err := x.Model.Complete(ctx, fmt.Sprintf(promptTemplate, transcript), SchemaHint)
	if err != nil {
		step.Kind = KindExtractionDegraded
		if errors.Is(err, gemini.ErrNotConfigured) {
			step.Detail = "model not configured"
			return notConfiguredFacts(), step
		}
		step.Detail = err.Error()
		return modelErrorFacts(), step
	}

	facts, err := ParseFacts(raw)
	if err != nil {
		x.Logger.Warn().Err(err).Str("raw", truncate(raw, 500)).Msg("unparseable extraction output")
		step.Kind, step.Detail = KindExtractionDegraded, err.Error()
		return parseErrorFacts(), step
	}
	return facts, step
}

type rawFacts struct {
	Summary     *string                    `json:"summary"`
	Insights    json.RawMessage            `json:"insights"`
	Vitals      map[string]json.RawMessage `json:"vitals"`
	Medications json.RawMessage            `json:"medications"`
	Diagnosis   *string                    `json:"diagnosis"`
	Protocol    *string                    `json:"protocol"`
}

// ParseFacts decodes model output. Code fences and text around the outermost
// JSON object are ignored.
func ParseFacts(raw string) (Facts, error) {
	text := strings.TrimSpace(fenceRE.ReplaceAllString(raw, ""))
	if i, j := strings.Index(text, "{"), strings.LastIndex(text, "}"); i >= 0 && j > i {
		text = text[i : j+1]
	}

	var rf rawFacts
	if err := json.Unmarshal([]byte(text), &rf); err != nil {
		return Facts{}, fmt.Errorf("decode facts: %w", err)
	}

	f := Facts{
		Summary:     "Session completed.",
		Insights:    "No insights extracted.",
		Vitals:      map[string]float64{},
		Medications: []MedicationEvent{},
		Diagnosis:   noneValue,
		Protocol:    noneValue,
	}
	if rf.Summary != nil {
		f.Summary = *rf.Summary
	}
	if s, ok := flexibleText(rf.Insights); ok {
		f.Insights = s
	}
	for k, v := range rf.Vitals {
		if n, ok := number(v); ok {
			f.Vitals[k] = n
		}
	}
	if len(rf.Medications) > 0 {
		var meds []MedicationEvent
		if err := json.Unmarshal(rf.Medications, &meds); err == nil {
			for _, m := range meds {
				m.Name = strings.TrimSpace(m.Name)
				m.Status = strings.ToUpper(strings.TrimSpace(m.Status))
				f.Medications = append(f.Medications, m)
			}
		}
	}
	if rf.Diagnosis != nil && strings.TrimSpace(*rf.Diagnosis) != "" {
		f.Diagnosis = strings.TrimSpace(*rf.Diagnosis)
	}
	if rf.Protocol != nil && strings.TrimSpace(*rf.Protocol) != "" {
		f.Protocol = strings.TrimSpace(*rf.Protocol)
	}
	return f, nil
}

// flexibleText accepts a string or an array of strings.
func flexibleText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "\n"), true
	}
	return "", false
}

// number accepts a JSON number or a numeric string. null and anything else
// are dropped.
func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
