package reconcile

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/vitals"
)

// pickValue returns the first non-zero candidate. Zero means "not reported";
// any other value, negative included, is passed on to the gate.
func pickValue(candidates ...float64) float64 {
	for _, c := range candidates {
		if c != 0 {
			return c
		}
	}
	return 0
}

// reconcileVitals merges extracted vitals with the last reading and writes a
// new reading when the heart rate is plausible. It returns the committed
// reading, or nil.
func (p *Pipeline) reconcileVitals(ctx context.Context, patientID uuid.UUID, extracted map[string]float64) (*vitals.Reading, StepResult) {
	step := StepResult{Step: StepVitals, Kind: KindNone}
	if len(extracted) == 0 {
		step.Detail = "no vitals reported"
		return nil, step
	}

	var lastHR, lastSpO2, lastSleep float64
	latest, err := p.store.LatestVitals(ctx, patientID)
	if err != nil {
		p.logger.Warn().Err(err).Str("patient_id", patientID.String()).Str("step", StepVitals).
			Msg("latest vitals unavailable, using defaults")
	}
	if latest != nil {
		lastHR, lastSpO2, lastSleep = float64(latest.HeartRate), float64(latest.SpO2Level), latest.SleepHours
	}

	rawHR := pickValue(extracted[VitalHeartRate], lastHR, vitals.DefaultHeartRate)
	if !vitals.Plausible(rawHR) {
		step.Kind = KindVitalsImplausible
		step.Detail = fmt.Sprintf("heart rate %g outside (30, 200)", rawHR)
		return nil, step
	}
	hr := int(rawHR)
	spo2 := int(pickValue(extracted[VitalSpO2], lastSpO2, vitals.DefaultSpO2))
	sleep := pickValue(extracted[VitalSleepHours], lastSleep, vitals.DefaultSleepHours)

	reading := vitals.NewReading(patientID, hr, spo2, sleep, p.now())
	err = p.tx.InTx(ctx, func(ctx context.Context) error {
		if err := p.store.InsertVitals(ctx, reading); err != nil {
			return fmt.Errorf("insert vitals: %w", err)
		}
		return p.store.AppendActivity(ctx, &activity.Entry{
			PatientID:   patientID,
			EventType:   activity.EventSensor,
			Title:       "Vitals Updated via AI",
			Description: fmt.Sprintf("Updated: HR %d bpm, SpO2 %d%%", hr, spo2),
			Severity:    activity.SeverityInfo,
		})
	})
	if err != nil {
		step.Kind, step.Detail = KindReconciliationSubtaskFailure, err.Error()
		return nil, step
	}
	return reading, step
}
