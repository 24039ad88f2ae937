// Package briefing renders the plain-text patient context handed to the
// assistant model: profile, latest vitals, medications, recent chat and
// previous session summaries.
package briefing

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aegismedix/cortex/internal/domain/chat"
	"github.com/aegismedix/cortex/internal/domain/medication"
	"github.com/aegismedix/cortex/internal/domain/patient"
	"github.com/aegismedix/cortex/internal/domain/session"
	"github.com/aegismedix/cortex/internal/domain/vitals"
)

const (
	chatMessages     = 10
	chatTruncate     = 200
	sessionSummaries = 3
)

type PatientReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

type VitalsReader interface {
	Latest(ctx context.Context, patientID uuid.UUID) (*vitals.Reading, error)
}

type MedicationReader interface {
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*medication.Medication, error)
}

type ChatReader interface {
	RecentByPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*chat.Message, error)
}

type SessionReader interface {
	ListRecent(ctx context.Context, patientID uuid.UUID, limit int) ([]*session.Session, error)
}

type Builder struct {
	Patients    PatientReader
	Vitals      VitalsReader
	Medications MedicationReader
	Chat        ChatReader
	Sessions    SessionReader
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Build fetches the profile, then everything else concurrently. Only a
// missing profile is an error; other sources degrade to N/A or nothing.
func (b *Builder) Build(ctx context.Context, patientID uuid.UUID) (string, error) {
	p, err := b.Patients.GetByID(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("load patient: %w", err)
	}

	log := b.Logger.With().Str("patient_id", patientID.String()).Logger()
	var (
		latest   *vitals.Reading
		meds     []*medication.Medication
		messages []*chat.Message
		sessions []*session.Session
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := b.Vitals.Latest(gctx, patientID)
		if err != nil {
			log.Warn().Err(err).Msg("briefing: vitals unavailable")
			return nil
		}
		latest = r
		return nil
	})
	g.Go(func() error {
		m, err := b.Medications.ListByPatient(gctx, patientID)
		if err != nil {
			log.Warn().Err(err).Msg("briefing: medications unavailable")
			return nil
		}
		meds = m
		return nil
	})
	g.Go(func() error {
		m, err := b.Chat.RecentByPatient(gctx, patientID, chatMessages)
		if err != nil {
			log.Warn().Err(err).Msg("briefing: chat history unavailable")
			return nil
		}
		messages = m
		return nil
	})
	g.Go(func() error {
		s, err := b.Sessions.ListRecent(gctx, patientID, sessionSummaries)
		if err != nil {
			log.Warn().Err(err).Msg("briefing: sessions unavailable")
			return nil
		}
		sessions = s
		return nil
	})
	_ = g.Wait()

	now := time.Now()
	if b.Now != nil {
		now = b.Now()
	}
	return Render(p, latest, meds, messages, sessions, now), nil
}

// Render formats the briefing. It is pure so it can be tested directly.
func Render(p *patient.Patient, v *vitals.Reading, meds []*medication.Medication, messages []*chat.Message, sessions []*session.Session, now time.Time) string {
	var sb strings.Builder

	dob := "Not provided"
	if p.DateOfBirth != nil {
		dob = p.DateOfBirth.Format("2006-01-02")
	}
	age := "Unknown"
	if a := p.Age(now); a >= 0 {
		age = strconv.Itoa(a)
	}
	name := p.FullName
	if name == "" {
		name = "Unknown"
	}

	sb.WriteString("PATIENT PROFILE:\n")
	fmt.Fprintf(&sb, "Name: %s\n", name)
	fmt.Fprintf(&sb, "Date of Birth: %s\n", dob)
	fmt.Fprintf(&sb, "Age: %s\n", age)
	fmt.Fprintf(&sb, "Blood Type: %s\n", orDefault(p.BloodType, "Not specified"))
	fmt.Fprintf(&sb, "Allergies: %s\n", orDefault(p.Allergies, "None known"))
	fmt.Fprintf(&sb, "Diagnosis: %s\n", orDefault(p.Diagnosis, "None"))
	fmt.Fprintf(&sb, "Recovery Protocol: %s\n", orDefault(p.RecoveryProtocol, "None"))
	if p.RecoveryStartDate != nil {
		fmt.Fprintf(&sb, "Recovery Started: %s\n", p.RecoveryStartDate.Format("2006-01-02"))
	}

	sb.WriteString("\nLATEST VITALS:\n")
	if v != nil {
		fmt.Fprintf(&sb, "Heart Rate: %d bpm (Status: %s)\n", v.HeartRate, v.HeartRateStatus)
		fmt.Fprintf(&sb, "SpO2: %d%% (Status: %s)\n", v.SpO2Level, v.SpO2Status)
		fmt.Fprintf(&sb, "Sleep: %s hours (Status: %s)\n", strconv.FormatFloat(v.SleepHours, 'f', -1, 64), v.SleepStatus)
	} else {
		sb.WriteString("Heart Rate: N/A bpm (Status: N/A)\n")
		sb.WriteString("SpO2: N/A% (Status: N/A)\n")
		sb.WriteString("Sleep: N/A hours (Status: N/A)\n")
	}

	sb.WriteString("\nMEDICATIONS:\n")
	if len(meds) == 0 {
		sb.WriteString("No medications on record.\n")
	}
	for _, m := range meds {
		fmt.Fprintf(&sb, "- %s: %s (%s at %s)\n", m.Name, m.Dosage, m.Frequency, m.ScheduledTime)
	}

	if len(messages) > 0 {
		sb.WriteString("\nRECENT CHAT CONVERSATION HISTORY:\n")
		for _, m := range messages {
			if m.Content == "" {
				continue
			}
			sender := "Dr. Aegis"
			if m.Role == chat.RoleUser {
				sender = "Patient"
			}
			fmt.Fprintf(&sb, "%s: %s\n", sender, truncate(m.Content, chatTruncate))
		}
	}

	if len(sessions) > 0 {
		var lines []string
		for _, s := range sessions {
			text := s.Summary
			if text == "" {
				text = s.AIInsights
			}
			if text != "" {
				lines = append(lines, "- "+text)
			}
		}
		if len(lines) > 0 {
			sb.WriteString("\nPREVIOUS AI SESSION SUMMARIES:\n")
			sb.WriteString(strings.Join(lines, "\n"))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func orDefault(v *string, def string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return def
	}
	return *v
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
