package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/notification"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/platform/mailer"
	"github.com/aegismedix/cortex/internal/platform/websocket"
)

type fakePatients struct {
	patients []*patient.Patient
	err      error
}

func (f *fakePatients) ListReminderEnabled(context.Context) ([]*patient.Patient, error) {
	return f.patients, f.err
}

type fakeMedications struct {
	meds  map[uuid.UUID][]*medication.Medication
	taken map[uuid.UUID]bool
}

func (f *fakeMedications) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*medication.Medication, error) {
	return f.meds[patientID], nil
}

func (f *fakeMedications) HasLogSince(_ context.Context, medicationID uuid.UUID, _ time.Time) (bool, error) {
	return f.taken[medicationID], nil
}

type fakeActivity struct {
	mu      sync.Mutex
	entries []*activity.Entry
}

func (f *fakeActivity) Append(_ context.Context, e *activity.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (f *fakePublisher) Publish(_ context.Context, ev websocket.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

type fakeInbox struct {
	mu    sync.Mutex
	items []*notification.Notification
}

func (f *fakeInbox) Notify(_ context.Context, patientID uuid.UUID, title, message, kind string) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := &notification.Notification{ID: uuid.New(), PatientID: patientID, Title: title, Message: message, Type: kind}
	f.items = append(f.items, n)
	return n, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	worker *Worker
	meds   *fakeMedications
	act    *fakeActivity
	pub    *fakePublisher
	inbox  *fakeInbox
	mail   *fakeMailer
	pid    uuid.UUID
	due    *medication.Medication
	later  *medication.Medication
	clock  time.Time
}

func newFixture() *fixture {
	f := &fixture{
		act:   &fakeActivity{},
		pub:   &fakePublisher{},
		inbox: &fakeInbox{},
		mail:  &fakeMailer{},
		pid:   uuid.New(),
		clock: time.Date(2026, 3, 14, 9, 0, 30, 0, time.UTC),
	}
	f.due = &medication.Medication{ID: uuid.New(), PatientID: f.pid, Name: "Metoprolol", Dosage: "50mg", ScheduledTime: "09:00:00"}
	f.later = &medication.Medication{ID: uuid.New(), PatientID: f.pid, Name: "Vitamin D", ScheduledTime: "21:00:00"}
	f.meds = &fakeMedications{
		meds:  map[uuid.UUID][]*medication.Medication{f.pid: {f.due, f.later}},
		taken: map[uuid.UUID]bool{},
	}
	f.worker = &Worker{
		Patients:    &fakePatients{patients: []*patient.Patient{{ID: f.pid, InAppRemindersEnabled: true}}},
		Medications: f.meds,
		Activity:    f.act,
		Events:      f.pub,
		Inbox:       f.inbox,
		Mail:        f.mail,
		Logger:      zerolog.Nop(),
		Now:         func() time.Time { return f.clock },
	}
	return f
}

func TestTick_SendsDueReminder(t *testing.T) {
	f := newFixture()
	n, err := f.worker.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	if len(f.pub.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.pub.events))
	}
	ev := f.pub.events[0]
	if ev.Type != websocket.EventMedicationReminder || ev.Topic != websocket.PatientTopic(f.pid.String()) {
		t.Errorf("unexpected event %+v", ev)
	}
	var p Payload
	if err := json.Unmarshal(ev.Data, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.MedicationID != f.due.ID || p.Name != "Metoprolol" {
		t.Errorf("unexpected payload %+v", p)
	}
	if len(f.act.entries) != 1 || f.act.entries[0].EventType != activity.EventReminder ||
		f.act.entries[0].Description != "Time to take Metoprolol (50mg)" {
		t.Errorf("unexpected activity %+v", f.act.entries)
	}
	if len(f.inbox.items) != 1 || f.inbox.items[0].Type != notification.TypeReminder ||
		f.inbox.items[0].Message != "Time to take Metoprolol (50mg)" || f.inbox.items[0].PatientID != f.pid {
		t.Errorf("unexpected inbox %+v", f.inbox.items)
	}
}

func TestTick_OncePerDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	if n, _ := f.worker.Tick(ctx); n != 1 {
		t.Fatalf("first tick sent %d", n)
	}
	f.clock = f.clock.Add(20 * time.Second)
	if n, _ := f.worker.Tick(ctx); n != 0 {
		t.Errorf("second tick in the same minute sent %d", n)
	}
	f.clock = f.clock.Add(24 * time.Hour)
	if n, _ := f.worker.Tick(ctx); n != 1 {
		t.Errorf("expected a reminder on the next day, got %d", n)
	}
}

func TestTick_SkipsTakenMedication(t *testing.T) {
	f := newFixture()
	f.meds.taken[f.due.ID] = true
	if n, _ := f.worker.Tick(context.Background()); n != 0 {
		t.Errorf("expected no reminder for a taken medication, got %d", n)
	}
	if len(f.act.entries) != 0 || len(f.pub.events) != 0 {
		t.Error("nothing should be written")
	}
}

func TestTick_EmailOnlyPatientGetsEmailNotInApp(t *testing.T) {
	f := newFixture()
	f.worker.Patients = &fakePatients{patients: []*patient.Patient{{
		ID: f.pid, FullName: "Ana Lima", Email: "ana@example.com", EmailRemindersEnabled: true,
	}}}
	if n, _ := f.worker.Tick(context.Background()); n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	if len(f.pub.events) != 0 {
		t.Error("in-app event published for a patient without in-app reminders")
	}
	if len(f.inbox.items) != 0 {
		t.Error("inbox notification stored for a patient without in-app reminders")
	}
	if len(f.mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.mail.sent))
	}
	msg := f.mail.sent[0]
	if msg.ToEmail != "ana@example.com" || msg.ToName != "Ana Lima" ||
		msg.Subject != "Medication Reminder: Metoprolol" || msg.Body != "Time to take Metoprolol (50mg)." {
		t.Errorf("unexpected email %+v", msg)
	}
	if len(f.act.entries) != 1 {
		t.Error("expected a reminder activity entry")
	}
}

func TestTick_InAppOnlyPatientGetsNoEmail(t *testing.T) {
	f := newFixture()
	if n, _ := f.worker.Tick(context.Background()); n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	if len(f.mail.sent) != 0 {
		t.Error("email sent to a patient without email reminders")
	}
}

func TestTick_EmailFailureStillCountsReminder(t *testing.T) {
	f := newFixture()
	f.mail.err = errors.New("mail down")
	f.worker.Patients = &fakePatients{patients: []*patient.Patient{{
		ID: f.pid, Email: "ana@example.com", EmailRemindersEnabled: true, InAppRemindersEnabled: true,
	}}}
	if n, _ := f.worker.Tick(context.Background()); n != 1 {
		t.Fatalf("expected 1 reminder, got %d", n)
	}
	if len(f.pub.events) != 1 || len(f.act.entries) != 1 || len(f.inbox.items) != 1 {
		t.Errorf("other channels must still deliver: events=%d activity=%d inbox=%d",
			len(f.pub.events), len(f.act.entries), len(f.inbox.items))
	}
}

func TestTick_ListError(t *testing.T) {
	f := newFixture()
	f.worker.Patients = &fakePatients{err: errors.New("db down")}
	if _, err := f.worker.Tick(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	f := newFixture()
	f.worker.Interval = 10 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker.Start(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
