package converter

import (
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
)

// SubscriptionToResponse converts a Subscription entity to SubscriptionResponse DTO
func SubscriptionToResponse(subscription *entity.Subscription) *dto.SubscriptionResponse {
	if subscription == nil {
		return nil
	}

	return &dto.SubscriptionResponse{
		ID:                   subscription.ID,
		PatientID:            subscription.PatientID,
		DoctorID:             subscription.DoctorID,
		Status:               string(subscription.Status),
		RequestMessage:       subscription.RequestMessage,
		ResponseMessage:      subscription.ResponseMessage,
		RequestedAt:          subscription.RequestedAt,
		RespondedAt:          subscription.RespondedAt,
		ExpiresAt:            subscription.ExpiresAt,
		IsActive:             subscription.IsActive,
		ConsentGiven:         subscription.ConsentGiven,
		ConsentDate:          subscription.ConsentDate,
		PrivacyPolicyVersion: subscription.PrivacyPolicyVersion,
		Patient:              UserToParticipant(subscription.Patient),
		Doctor:               UserToParticipant(subscription.Doctor),
		CreatedAt:            subscription.CreatedAt,
		UpdatedAt:            subscription.UpdatedAt,
	}
}

// SubscriptionsToResponses converts a slice of Subscription entities to slice of SubscriptionResponse DTOs
func SubscriptionsToResponses(subscriptions []entity.Subscription) []dto.SubscriptionResponse {
	responses := make([]dto.SubscriptionResponse, len(subscriptions))
	for i := range subscriptions {
		responses[i] = *SubscriptionToResponse(&subscriptions[i])
	}
	return responses
}
