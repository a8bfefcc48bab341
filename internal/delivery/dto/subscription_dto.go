package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type CreateSubscriptionRequest struct {
	DoctorID             string  `json:"doctorId" validate:"required,uuid"`
	RequestMessage       *string `json:"requestMessage" validate:"omitempty,max=500"`
	ConsentGiven         bool    `json:"consentGiven"`
	PrivacyPolicyVersion *string `json:"privacyPolicyVersion" validate:"omitempty,max=20"`
}

type UpdateSubscriptionStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=approved denied"`
	ResponseMessage *string `json:"responseMessage" validate:"omitempty,max=500"`
}

type SubscriptionListQuery struct {
	Status string `json:"status" validate:"omitempty,oneof=requested approved denied cancelled"`
}

// Response DTOs

type SubscriptionResponse struct {
	ID                   uuid.UUID            `json:"id"`
	PatientID            uuid.UUID            `json:"patient_id"`
	DoctorID             uuid.UUID            `json:"doctor_id"`
	Status               string               `json:"status"`
	RequestMessage       *string              `json:"request_message,omitempty"`
	ResponseMessage      *string              `json:"response_message,omitempty"`
	RequestedAt          time.Time            `json:"requested_at"`
	RespondedAt          *time.Time           `json:"responded_at,omitempty"`
	ExpiresAt            *time.Time           `json:"expires_at,omitempty"`
	IsActive             bool                 `json:"is_active"`
	ConsentGiven         bool                 `json:"consent_given"`
	ConsentDate          *time.Time           `json:"consent_date,omitempty"`
	PrivacyPolicyVersion *string              `json:"privacy_policy_version,omitempty"`
	Patient              *ParticipantResponse `json:"patient,omitempty"`
	Doctor               *ParticipantResponse `json:"doctor,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

type SubscriptionListResponse struct {
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
	Total         int                    `json:"total"`
}
