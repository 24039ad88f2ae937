package patient

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. The four recovery fields are nullable;
// RecoveryStartDate is set exactly when Diagnosis holds a real value.
type Patient struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	FullName              string     `db:"full_name" json:"full_name"`
	Phone                 *string    `db:"phone" json:"phone,omitempty"`
	EmergencyContact      *string    `db:"emergency_contact" json:"emergency_contact,omitempty"`
	EmergencyNumber       *string    `db:"emergency_number" json:"emergency_number,omitempty"`
	BloodType             *string    `db:"blood_type" json:"blood_type,omitempty"`
	Allergies             *string    `db:"allergies" json:"allergies,omitempty"`
	AvatarURL             *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	DateOfBirth           *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	EmailRemindersEnabled bool       `db:"email_reminders_enabled" json:"email_reminders_enabled"`
	InAppRemindersEnabled bool       `db:"in_app_reminders_enabled" json:"in_app_reminders_enabled"`
	Diagnosis             *string    `db:"diagnosis" json:"diagnosis"`
	RecoveryProtocol      *string    `db:"recovery_protocol" json:"recovery_protocol"`
	RecoveryStartDate     *time.Time `db:"recovery_start_date" json:"recovery_start_date"`
	RecoveryDurationDays  *int       `db:"recovery_duration_days" json:"recovery_duration_days"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Age in whole years at now, or -1 when the birth date is unknown.
func (p *Patient) Age(now time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// HasDiagnosis reports whether a real diagnosis is on file.
func (p *Patient) HasDiagnosis() bool {
	return IsMeaningful(p.Diagnosis)
}

// IsMeaningful treats nil, blank and "none" (any case) as absent.
func IsMeaningful(v *string) bool {
	if v == nil {
		return false
	}
	s := strings.TrimSpace(*v)
	return s != "" && !strings.EqualFold(s, "none")
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left
// unchanged. Recovery fields are deliberately absent.
type ProfileUpdate struct {
	FullName              *string    `json:"full_name"`
	Phone                 *string    `json:"phone"`
	EmergencyContact      *string    `json:"emergency_contact"`
	EmergencyNumber       *string    `json:"emergency_number"`
	BloodType             *string    `json:"blood_type"`
	Allergies             *string    `json:"allergies"`
	AvatarURL             *string    `json:"avatar_url"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	EmailRemindersEnabled *bool      `json:"email_reminders_enabled"`
	InAppRemindersEnabled *bool      `json:"in_app_reminders_enabled"`
}

func (u *ProfileUpdate) apply(p *Patient) {
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Phone != nil {
		p.Phone = u.Phone
	}
	if u.EmergencyContact != nil {
		p.EmergencyContact = u.EmergencyContact
	}
	if u.EmergencyNumber != nil {
		p.EmergencyNumber = u.EmergencyNumber
	}
	if u.BloodType != nil {
		p.BloodType = u.BloodType
	}
	if u.Allergies != nil {
		p.Allergies = u.Allergies
	}
	if u.AvatarURL != nil {
		p.AvatarURL = u.AvatarURL
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth
	}
	if u.EmailRemindersEnabled != nil {
		p.EmailRemindersEnabled = *u.EmailRemindersEnabled
	}
	if u.InAppRemindersEnabled != nil {
		p.InAppRemindersEnabled = *u.InAppRemindersEnabled
	}
}

// RecoveryUpdate is written by the reconciliation pipeline. Nil fields are
// left unchanged.
type RecoveryUpdate struct {
	Diagnosis            *string
	RecoveryProtocol     *string
	RecoveryStartDate    *time.Time
	RecoveryDurationDays *int
}

func (u RecoveryUpdate) Empty() bool {
	return u.Diagnosis == nil && u.RecoveryProtocol == nil &&
		u.RecoveryStartDate == nil && u.RecoveryDurationDays == nil
}
