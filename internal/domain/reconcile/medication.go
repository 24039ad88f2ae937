package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/medication"
)

// MatchMedication finds the first known medication whose name contains, or
// is contained in, name. Comparison ignores case. Known medications without a
// name never match.
func MatchMedication(known []*medication.Medication, name string) *medication.Medication {
	target := strings.ToLower(strings.TrimSpace(name))
	if target == "" {
		return nil
	}
	for _, m := range known {
		k := strings.ToLower(strings.TrimSpace(m.Name))
		if k == "" {
			continue
		}
		if strings.Contains(k, target) || strings.Contains(target, k) {
			return m
		}
	}
	return nil
}

func medicationSummary(events []MedicationEvent) string {
	parts := make([]string, 0, len(events))
	for _, e := range events {
		parts = append(parts, fmt.Sprintf("%s (%s)", e.Name, e.Status))
	}
	return "AI Detected: " + strings.Join(parts, ", ")
}

// reconcileMedications records the detected medication events and logs each
// TAKEN event against a known medication, provisioning one when none matches.
// Each event commits on its own; a failed event is logged and skipped.
func (p *Pipeline) reconcileMedications(ctx context.Context, patientID uuid.UUID, events []MedicationEvent) StepResult {
	step := StepResult{Step: StepMedications, Kind: KindNone}
	if len(events) == 0 {
		step.Detail = "no medications reported"
		return step
	}
	log := p.logger.With().Str("patient_id", patientID.String()).Str("step", StepMedications).Logger()

	var failures []string
	if err := p.store.AppendActivity(ctx, &activity.Entry{
		PatientID:   patientID,
		EventType:   activity.EventMedication,
		Title:       "Medication Update",
		Description: medicationSummary(events),
		Severity:    activity.SeverityInfo,
	}); err != nil {
		log.Error().Err(err).Msg("failed to record medication summary")
		failures = append(failures, "summary: "+err.Error())
	}

	known, err := p.store.ListMedications(ctx, patientID)
	if err != nil {
		step.Kind, step.Detail = KindReconciliationSubtaskFailure, "list medications: "+err.Error()
		return step
	}

	logged := 0
	for _, ev := range events {
		if !strings.EqualFold(ev.Status, EventTaken) || strings.TrimSpace(ev.Name) == "" {
			continue
		}
		match := MatchMedication(known, ev.Name)
		m, err := p.logTaken(ctx, patientID, match, ev.Name)
		if err != nil {
			log.Error().Err(err).Str("medication", ev.Name).Str("kind", string(KindReconciliationSubtaskFailure)).
				Msg("failed to log medication event")
			failures = append(failures, ev.Name+": "+err.Error())
			continue
		}
		if match == nil {
			known = append(known, m)
		}
		logged++
	}

	step.Detail = fmt.Sprintf("%d taken event(s) logged", logged)
	if len(failures) > 0 {
		step.Kind = KindReconciliationSubtaskFailure
		step.Detail += "; failed: " + strings.Join(failures, "; ")
	}
	return step
}

// logTaken writes one TAKEN log against m, provisioning an as-needed
// medication called name first when m is nil.
func (p *Pipeline) logTaken(ctx context.Context, patientID uuid.UUID, m *medication.Medication, name string) (*medication.Medication, error) {
	err := p.tx.InTx(ctx, func(ctx context.Context) error {
		if m == nil {
			m = &medication.Medication{
				PatientID:     patientID,
				Name:          strings.TrimSpace(name),
				Dosage:        medication.AsNeeded,
				Frequency:     medication.AsNeeded,
				ScheduledTime: medication.DefaultScheduledTime,
				Category:      medication.RecoveryCategory,
			}
			if err := p.store.CreateMedication(ctx, m); err != nil {
				return fmt.Errorf("create medication: %w", err)
			}
		}
		if err := p.store.InsertMedicationLog(ctx, &medication.Log{
			PatientID:    patientID,
			MedicationID: m.ID,
			Status:       medication.StatusTaken,
			ScheduledFor: p.now(),
		}); err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		return p.store.AppendActivity(ctx, &activity.Entry{
			PatientID:   patientID,
			EventType:   activity.EventMedication,
			Title:       "Medication Taken",
			Description: "Took " + m.Name,
			Severity:    activity.SeverityInfo,
		})
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
