package reconcile

import (
	"context"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/domain/vitals"
)

// Store is the patient state the pipeline reads and writes.
type Store interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	UpdateRecovery(ctx context.Context, id uuid.UUID, u patient.RecoveryUpdate) error
	ListMedications(ctx context.Context, patientID uuid.UUID) ([]*medication.Medication, error)
	CreateMedication(ctx context.Context, m *medication.Medication) error
	InsertMedicationLog(ctx context.Context, l *medication.Log) error
	// LatestVitals returns nil, nil when there is no reading yet.
	LatestVitals(ctx context.Context, patientID uuid.UUID) (*vitals.Reading, error)
	InsertVitals(ctx context.Context, r *vitals.Reading) error
	AppendActivity(ctx context.Context, e *activity.Entry) error
	InsertSession(ctx context.Context, s *session.Session) error
}

// RepoStore adapts the domain repositories to Store.
type RepoStore struct {
	Patients    patient.Repository
	Medications medication.Repository
	Vitals      vitals.Repository
	Activity    activity.Repository
	Sessions    session.Repository
}

func (s *RepoStore) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.Patients.GetByID(ctx, id)
}

func (s *RepoStore) UpdateRecovery(ctx context.Context, id uuid.UUID, u patient.RecoveryUpdate) error {
	return s.Patients.UpdateRecovery(ctx, id, u)
}

func (s *RepoStore) ListMedications(ctx context.Context, patientID uuid.UUID) ([]*medication.Medication, error) {
	return s.Medications.ListByPatient(ctx, patientID)
}

func (s *RepoStore) CreateMedication(ctx context.Context, m *medication.Medication) error {
	return s.Medications.Create(ctx, m)
}

func (s *RepoStore) InsertMedicationLog(ctx context.Context, l *medication.Log) error {
	return s.Medications.InsertLog(ctx, l)
}

func (s *RepoStore) LatestVitals(ctx context.Context, patientID uuid.UUID) (*vitals.Reading, error) {
	return s.Vitals.Latest(ctx, patientID)
}

func (s *RepoStore) InsertVitals(ctx context.Context, r *vitals.Reading) error {
	return s.Vitals.Insert(ctx, r)
}

func (s *RepoStore) AppendActivity(ctx context.Context, e *activity.Entry) error {
	if e.Severity == "" {
		e.Severity = activity.SeverityInfo
	}
	return s.Activity.Append(ctx, e)
}

func (s *RepoStore) InsertSession(ctx context.Context, sess *session.Session) error {
	return s.Sessions.Insert(ctx, sess)
}
