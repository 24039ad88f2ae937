package reconcile

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/patient"
)

func meaningful(s string) bool {
	return patient.IsMeaningful(&s)
}

func isShortSession(summary string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(summary)), "short session")
}

// reconcileRecovery writes diagnosis and protocol when the model reported
// them. The recovery timeline restarts only for a diagnosis that differs from
// the current one, or when no timeline is running yet.
func (p *Pipeline) reconcileRecovery(ctx context.Context, patientID uuid.UUID, f Facts) StepResult {
	step := StepResult{Step: StepRecovery, Kind: KindNone}
	if isShortSession(f.Summary) {
		step.Detail = "short session"
		return step
	}
	diagnosis, protocol := strings.TrimSpace(f.Diagnosis), strings.TrimSpace(f.Protocol)
	hasDx, hasProtocol := meaningful(diagnosis), meaningful(protocol)
	if !hasDx && !hasProtocol {
		step.Detail = "no diagnosis or protocol reported"
		return step
	}

	err := p.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := p.store.GetPatient(ctx, patientID)
		if err != nil {
			return err
		}

		var u patient.RecoveryUpdate
		if hasProtocol {
			u.RecoveryProtocol = &protocol
		}
		if hasDx {
			u.Diagnosis = &diagnosis
			currentDx := ""
			if current.HasDiagnosis() {
				currentDx = strings.TrimSpace(*current.Diagnosis)
			}
			if !strings.EqualFold(diagnosis, currentDx) || current.RecoveryStartDate == nil {
				now := p.now()
				days := p.recoveryDays
				u.RecoveryStartDate = &now
				u.RecoveryDurationDays = &days
				step.Detail = "timeline reset"
			} else {
				step.Detail = "diagnosis unchanged"
			}
		}
		return p.store.UpdateRecovery(ctx, patientID, u)
	})
	if err != nil {
		step.Kind, step.Detail = KindReconciliationSubtaskFailure, err.Error()
	}
	return step
}
