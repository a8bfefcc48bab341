package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type SendMessageRequest struct {
	Body string `json:"body" validate:"required,max=4000"`
}

type MessageListQuery struct {
	Limit *int `json:"limit" validate:"omitempty,gte=1,lte=200"`
}

// Response DTOs

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	FromUserID     uuid.UUID `json:"from_user_id"`
	ToUserID       uuid.UUID `json:"to_user_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type MessageListResponse struct {
	Messages []MessageResponse `json:"messages"`
	Total    int               `json:"total"`
}
