package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/platform/db"
)

var ErrInvalid = errors.New("invalid task")

// ActivityRecorder appends to the patient's activity trail.
type ActivityRecorder interface {
	Append(ctx context.Context, e *activity.Entry) error
}

type Service struct {
	repo     Repository
	activity ActivityRecorder
	tx       db.TxRunner
}

func NewService(repo Repository, act ActivityRecorder, tx db.TxRunner) *Service {
	return &Service{repo: repo, activity: act, tx: tx}
}

// Create stores a PENDING task and records the assignment on the activity
// trail in the same transaction.
func (s *Service) Create(ctx context.Context, t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	t.AssignedBy = strings.TrimSpace(t.AssignedBy)
	if t.AssignedBy == "" {
		t.AssignedBy = AssignedBySelf
	}
	t.Status = StatusPending
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, t); err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		return s.activity.Append(ctx, &activity.Entry{
			PatientID:   t.PatientID,
			EventType:   activity.EventMessage,
			Title:       fmt.Sprintf("New Task Assigned (%s)", t.AssignedBy),
			Description: "Task: " + t.Title,
			Severity:    activity.SeverityInfo,
		})
	})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, patientID uuid.UUID) ([]*Task, error) {
	tasks, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	return tasks, nil
}

// UpdateStatus moves t to status. Entering COMPLETED writes an activity entry;
// repeating the current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, t *Task, status string) error {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !validStatuses[status] {
		return fmt.Errorf("%w: unknown status %q", ErrInvalid, status)
	}
	if t.Status == status {
		return nil
	}
	t.Status = status
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateStatus(ctx, t); err != nil {
			return err
		}
		if status != StatusCompleted {
			return nil
		}
		return s.activity.Append(ctx, &activity.Entry{
			PatientID:   t.PatientID,
			EventType:   activity.EventMessage,
			Title:       "Task Completed",
			Description: "Successfully finished: " + t.Title,
			Severity:    activity.SeverityInfo,
		})
	})
}
