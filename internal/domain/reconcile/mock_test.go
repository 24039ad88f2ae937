package reconcile

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/domain/vitals"
)

type memStore struct {
	mu          sync.Mutex
	patients    map[uuid.UUID]*patient.Patient
	medications []*medication.Medication
	logs        []*medication.Log
	readings    []*vitals.Reading
	activity    []*activity.Entry
	sessions    []*session.Session

	failSession   bool
	failLogFor    string
	recoveryCalls int
}

func newMemStore() *memStore {
	return &memStore{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (s *memStore) addPatient(p *patient.Patient) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	s.patients[p.ID] = p
	return p.ID
}

func (s *memStore) addMedication(patientID uuid.UUID, name string) *medication.Medication {
	m := &medication.Medication{ID: uuid.New(), PatientID: patientID, Name: name, ScheduledTime: "09:00:00"}
	s.medications = append(s.medications, m)
	return m
}

func (s *memStore) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, patient.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) UpdateRecovery(_ context.Context, id uuid.UUID, u patient.RecoveryUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return patient.ErrNotFound
	}
	s.recoveryCalls++
	if u.Diagnosis != nil {
		p.Diagnosis = u.Diagnosis
	}
	if u.RecoveryProtocol != nil {
		p.RecoveryProtocol = u.RecoveryProtocol
	}
	if u.RecoveryStartDate != nil {
		p.RecoveryStartDate = u.RecoveryStartDate
	}
	if u.RecoveryDurationDays != nil {
		p.RecoveryDurationDays = u.RecoveryDurationDays
	}
	return nil
}

func (s *memStore) ListMedications(_ context.Context, patientID uuid.UUID) ([]*medication.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*medication.Medication
	for _, m := range s.medications {
		if m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) CreateMedication(_ context.Context, m *medication.Medication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = uuid.New()
	s.medications = append(s.medications, m)
	return nil
}

func (s *memStore) InsertMedicationLog(_ context.Context, l *medication.Log) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.medications {
		if m.ID == l.MedicationID && s.failLogFor != "" && m.Name == s.failLogFor {
			return errors.New("log insert failed")
		}
	}
	l.ID = uuid.New()
	s.logs = append(s.logs, l)
	return nil
}

func (s *memStore) LatestVitals(_ context.Context, patientID uuid.UUID) (*vitals.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.readings) - 1; i >= 0; i-- {
		if s.readings[i].PatientID == patientID {
			return s.readings[i], nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertVitals(_ context.Context, r *vitals.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = uuid.New()
	s.readings = append(s.readings, r)
	return nil
}

func (s *memStore) AppendActivity(_ context.Context, e *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = uuid.New()
	s.activity = append(s.activity, e)
	return nil
}

func (s *memStore) InsertSession(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSession {
		return errors.New("connection reset")
	}
	sess.ID = uuid.New()
	s.sessions = append(s.sessions, sess)
	return nil
}

func (s *memStore) activityTitles() []string {
	var out []string
	for _, e := range s.activity {
		out = append(out, e.Title)
	}
	return out
}

type fakeModel struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompt   string
	schema   string
}

func (f *fakeModel) Complete(_ context.Context, prompt, schemaHint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompt, f.schema = prompt, schemaHint
	return f.response, f.err
}
