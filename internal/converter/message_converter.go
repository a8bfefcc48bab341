package converter

import (
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
)

func MessageToResponse(message *entity.Message) *dto.MessageResponse {
	if message == nil {
		return nil
	}

	return &dto.MessageResponse{
		ID:             message.ID,
		SubscriptionID: message.SubscriptionID,
		FromUserID:     message.FromUserID,
		ToUserID:       message.ToUserID,
		Body:           message.Body,
		CreatedAt:      message.CreatedAt,
	}
}

func MessagesToResponses(messages []entity.Message) []dto.MessageResponse {
	responses := make([]dto.MessageResponse, len(messages))
	for i := range messages {
		responses[i] = *MessageToResponse(&messages[i])
	}
	return responses
}
