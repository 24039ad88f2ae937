// Package reconcile turns a finished conversation into durable patient state:
// it extracts facts from the transcript with a language model, merges vitals,
// medication events and recovery status into the patient record, and writes
// the session with its activity trail.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/platform/db"
	"github.com/aegismedix/cortex/internal/platform/keylock"
)

// DefaultRecoveryDurationDays is the timeline length set on a new diagnosis.
const DefaultRecoveryDurationDays = 7

type Config struct {
	Store Store
	// Model may be nil; extraction then degrades to a fixed result.
	Model                Model
	Tx                   db.TxRunner
	Locks                *keylock.Map
	Logger               zerolog.Logger
	MinTranscriptChars   int
	RecoveryDurationDays int
	Now                  func() time.Time
}

// Input describes one finished session. Transcript wins over Turns when both
// are set.
type Input struct {
	PatientID   uuid.UUID
	Transcript  string
	Turns       []Turn
	StartedAt   time.Time
	EndedAt     time.Time
	SessionType string
}

type Pipeline struct {
	store        Store
	extractor    *Extractor
	tx           db.TxRunner
	locks        *keylock.Map
	logger       zerolog.Logger
	recoveryDays int
	now          func() time.Time
}

func New(cfg Config) *Pipeline {
	p := &Pipeline{
		store:        cfg.Store,
		tx:           cfg.Tx,
		locks:        cfg.Locks,
		logger:       cfg.Logger.With().Str("component", "reconcile").Logger(),
		recoveryDays: cfg.RecoveryDurationDays,
		now:          cfg.Now,
	}
	if p.tx == nil {
		p.tx = db.NoTx{}
	}
	if p.locks == nil {
		p.locks = &keylock.Map{}
	}
	if p.recoveryDays <= 0 {
		p.recoveryDays = DefaultRecoveryDurationDays
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	p.extractor = &Extractor{Model: cfg.Model, MinChars: cfg.MinTranscriptChars, Logger: p.logger}
	return p
}

// Run executes one pass. Only a failure to write the session is returned as
// an error, wrapping ErrPersistence; every other failure is recorded in the
// result's steps.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Result, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient id is required")
	}
	if in.EndedAt.IsZero() {
		in.EndedAt = p.now()
	}
	if in.StartedAt.IsZero() || in.StartedAt.After(in.EndedAt) {
		in.StartedAt = in.EndedAt
	}
	if in.SessionType == "" {
		in.SessionType = session.TypeVoice
	}
	transcript := in.Transcript
	if transcript == "" {
		transcript = Normalize(in.Turns)
	}

	log := p.logger.With().Str("patient_id", in.PatientID.String()).Logger()
	log.Info().Int("transcript_chars", utf8.RuneCountInString(transcript)).Msg("reconciliation started")

	facts, extractStep := p.extractor.Extract(ctx, transcript)
	result := &Result{
		Summary:     facts.Summary,
		Insights:    facts.Insights,
		Vitals:      map[string]float64{},
		Medications: facts.Medications,
	}
	p.record(log, result, extractStep)

	unlock := p.locks.Lock(in.PatientID.String())
	defer unlock()

	reading, vitalsStep := p.reconcileVitals(ctx, in.PatientID, facts.Vitals)
	p.record(log, result, vitalsStep)
	if reading != nil {
		result.Vitals[VitalHeartRate] = float64(reading.HeartRate)
		result.Vitals[VitalSpO2] = float64(reading.SpO2Level)
		result.Vitals[VitalSleepHours] = reading.SleepHours
	}

	p.record(log, result, p.reconcileMedications(ctx, in.PatientID, facts.Medications))
	p.record(log, result, p.reconcileRecovery(ctx, in.PatientID, facts))

	sess := &session.Session{
		PatientID:       in.PatientID,
		SessionType:     in.SessionType,
		StartedAt:       in.StartedAt,
		EndedAt:         in.EndedAt,
		DurationSeconds: session.Duration(in.StartedAt, in.EndedAt),
		Summary:         facts.Summary,
		AIInsights:      facts.Insights,
	}
	if reading != nil {
		hr, spo2 := reading.HeartRate, reading.SpO2Level
		sess.HeartRate, sess.SpO2Level = &hr, &spo2
	}
	if err := p.store.InsertSession(ctx, sess); err != nil {
		p.record(log, result, StepResult{Step: StepSession, Kind: KindPersistenceFailure, Detail: err.Error()})
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	result.SessionID = sess.ID
	p.record(log, result, StepResult{Step: StepSession, Kind: KindNone})

	if err := p.store.AppendActivity(ctx, &activity.Entry{
		PatientID:   in.PatientID,
		EventType:   activity.EventSession,
		Title:       "Health Check-in Completed",
		Description: "Summary: " + truncate(facts.Summary, 100) + "...",
		Severity:    activity.SeverityInfo,
	}); err != nil {
		p.record(log, result, StepResult{Step: StepActivity, Kind: KindReconciliationSubtaskFailure, Detail: err.Error()})
	}

	if meaningful(facts.Diagnosis) {
		d := facts.Diagnosis
		result.Diagnosis = &d
	}
	if meaningful(facts.Protocol) {
		pr := facts.Protocol
		result.Protocol = &pr
	}
	log.Info().Str("session_id", sess.ID.String()).Bool("degraded", result.Failed()).Msg("reconciliation finished")
	return result, nil
}

func (p *Pipeline) record(log zerolog.Logger, r *Result, s StepResult) {
	r.Steps = append(r.Steps, s)
	ev := log.Debug()
	if s.Kind != KindNone {
		ev = log.Warn()
	}
	ev.Str("step", s.Step).Str("kind", string(s.Kind)).Str("detail", s.Detail).Msg("reconciliation step")
}

// IsPersistence reports whether err came from the session write.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}
