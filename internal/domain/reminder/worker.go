// Package reminder nudges patients when a scheduled medication is due.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aegismedix/cortex/internal/domain/activity"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/notification"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/platform/mailer"
	"github.com/aegismedix/cortex/internal/platform/websocket"
)

type PatientLister interface {
	ListReminderEnabled(ctx context.Context) ([]*patient.Patient, error)
}

type MedicationSource interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*medication.Medication, error)
	HasLogSince(ctx context.Context, medicationID uuid.UUID, since time.Time) (bool, error)
}

type ActivityRecorder interface {
	Append(ctx context.Context, e *activity.Entry) error
}

// Inbox stores an in-app notification the patient can read later.
type Inbox interface {
	Notify(ctx context.Context, patientID uuid.UUID, title, message, kind string) (*notification.Notification, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// Payload is the data of a medication.reminder event.
type Payload struct {
	MedicationID  uuid.UUID `json:"medication_id"`
	Name          string    `json:"name"`
	Dosage        string    `json:"dosage"`
	ScheduledTime string    `json:"scheduled_time"`
}

// Worker checks due medications once per interval. A medication is reminded
// at most once per day for the lifetime of the process.
type Worker struct {
	Patients    PatientLister
	Medications MedicationSource
	Activity    ActivityRecorder
	Events      websocket.Publisher
	Inbox       Inbox
	Mail        Mailer
	Interval    time.Duration
	Logger      zerolog.Logger
	Now         func() time.Time

	mu   sync.Mutex
	day  string
	sent map[uuid.UUID]bool
}

// Start runs the reminder loop. It blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	interval := w.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.Logger.Info().Dur("interval", interval).Msg("reminder worker started")
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info().Msg("reminder worker stopped")
			return
		case <-ticker.C:
			if n, err := w.Tick(ctx); err != nil {
				w.Logger.Error().Err(err).Msg("reminder tick failed")
			} else if n > 0 {
				w.Logger.Info().Int("sent", n).Msg("medication reminders sent")
			}
		}
	}
}

// Tick sends reminders for every medication due at the current minute and
// returns how many were sent.
func (w *Worker) Tick(ctx context.Context) (int, error) {
	now := w.now()
	patients, err := w.Patients.ListReminderEnabled(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reminder patients: %w", err)
	}

	var (
		mu   sync.Mutex
		sent int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, p := range patients {
		p := p
		g.Go(func() error {
			n := w.remindPatient(gctx, p, now)
			mu.Lock()
			sent += n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return sent, nil
}

func (w *Worker) remindPatient(ctx context.Context, p *patient.Patient, now time.Time) int {
	log := w.Logger.With().Str("patient_id", p.ID.String()).Logger()
	meds, err := w.Medications.ListByPatient(ctx, p.ID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list medications")
		return 0
	}

	hhmm := now.Format("15:04")
	since := medication.StartOfDay(now)
	sent := 0
	for _, m := range meds {
		if m.HHMM() != hhmm || w.alreadySent(m.ID, now) {
			continue
		}
		taken, err := w.Medications.HasLogSince(ctx, m.ID, since)
		if err != nil {
			log.Warn().Err(err).Str("medication_id", m.ID.String()).Msg("failed to check medication logs")
			continue
		}
		if taken {
			continue
		}
		if err := w.send(ctx, p, m); err != nil {
			log.Warn().Err(err).Str("medication_id", m.ID.String()).Msg("failed to send reminder")
			continue
		}
		w.markSent(m.ID, now)
		sent++
	}
	return sent
}

func (w *Worker) send(ctx context.Context, p *patient.Patient, m *medication.Medication) error {
	if p.InAppRemindersEnabled && w.Events != nil {
		ev, err := websocket.NewPatientEvent(websocket.EventMedicationReminder, p.ID.String(), Payload{
			MedicationID:  m.ID,
			Name:          m.Name,
			Dosage:        m.Dosage,
			ScheduledTime: m.ScheduledTime,
		})
		if err != nil {
			return err
		}
		if err := w.Events.Publish(ctx, ev); err != nil {
			return err
		}
	}
	desc := fmt.Sprintf("Time to take %s", m.Name)
	if m.Dosage != "" {
		desc += " (" + m.Dosage + ")"
	}
	if p.InAppRemindersEnabled && w.Inbox != nil {
		if _, err := w.Inbox.Notify(ctx, p.ID, "Medication Reminder", desc, notification.TypeReminder); err != nil {
			return err
		}
	}
	if p.EmailRemindersEnabled && w.Mail != nil && p.Email != "" {
		err := w.Mail.Send(ctx, mailer.Message{
			ToEmail: p.Email,
			ToName:  p.FullName,
			Subject: "Medication Reminder: " + m.Name,
			Body:    desc + ".",
		})
		// A failed email does not hold back the other channels.
		if err != nil {
			w.Logger.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("failed to email reminder")
		}
	}
	return w.Activity.Append(ctx, &activity.Entry{
		PatientID:   p.ID,
		EventType:   activity.EventReminder,
		Title:       "Medication Reminder",
		Description: desc,
		Severity:    activity.SeverityInfo,
	})
}

func (w *Worker) alreadySent(id uuid.UUID, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if day := now.Format("2006-01-02"); day != w.day {
		w.day = day
		w.sent = make(map[uuid.UUID]bool)
	}
	return w.sent[id]
}

func (w *Worker) markSent(id uuid.UUID, now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if day := now.Format("2006-01-02"); day != w.day || w.sent == nil {
		w.day = day
		w.sent = make(map[uuid.UUID]bool)
	}
	w.sent[id] = true
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}
