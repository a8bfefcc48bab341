package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus represents the state of a patient/doctor subscription
type SubscriptionStatus string

const (
	SubscriptionStatusRequested SubscriptionStatus = "requested"
	SubscriptionStatusApproved  SubscriptionStatus = "approved"
	SubscriptionStatusDenied    SubscriptionStatus = "denied"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Subscription is a patient's standing request to communicate with a doctor.
// At most one row exists per (patient, doctor) pair.
type Subscription struct {
	ID                   uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	PatientID            uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_subscriptions_patient_doctor" json:"patient_id"`
	DoctorID             uuid.UUID          `gorm:"type:uuid;not null;index;uniqueIndex:idx_subscriptions_patient_doctor" json:"doctor_id"`
	Status               SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RequestMessage       *string            `gorm:"type:varchar(500)" json:"request_message,omitempty"`
	ResponseMessage      *string            `gorm:"type:varchar(500)" json:"response_message,omitempty"`
	RequestedAt          time.Time          `gorm:"not null" json:"requested_at"`
	RespondedAt          *time.Time         `json:"responded_at,omitempty"`
	ExpiresAt            *time.Time         `gorm:"index" json:"expires_at,omitempty"`
	IsActive             bool               `gorm:"not null" json:"is_active"`
	ConsentGiven         bool               `gorm:"not null" json:"consent_given"`
	ConsentDate          *time.Time         `json:"consent_date,omitempty"`
	PrivacyPolicyVersion *string            `gorm:"type:varchar(20)" json:"privacy_policy_version,omitempty"`
	CreatedAt            time.Time          `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt            time.Time          `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor  *User `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsRequested reports whether the subscription still awaits a response
func (s *Subscription) IsRequested() bool {
	return s.Status == SubscriptionStatusRequested
}

// IsApproved reports whether the two parties may exchange messages
func (s *Subscription) IsApproved() bool {
	return s.Status == SubscriptionStatusApproved
}

// IsParty reports whether userID is the patient or the doctor of s
func (s *Subscription) IsParty(userID uuid.UUID) bool {
	return s.PatientID == userID || s.DoctorID == userID
}

// Counterpart returns the other party of the subscription
func (s *Subscription) Counterpart(userID uuid.UUID) uuid.UUID {
	if s.PatientID == userID {
		return s.DoctorID
	}
	return s.PatientID
}

// SubscriptionFilter selects the subscriptions visible in a caller's list.
// Exactly one of PatientID, DoctorID or ParticipantID is expected.
type SubscriptionFilter struct {
	PatientID     *uuid.UUID
	DoctorID      *uuid.UUID
	ParticipantID *uuid.UUID
	Status        *SubscriptionStatus
}
