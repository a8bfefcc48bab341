package dto

import (
	"time"

	"medical-messenger/internal/domain/entity"
)

// Request DTOs

type AuditLogListQuery struct {
	Page  *int `json:"page" validate:"omitempty,gte=1"`
	Limit *int `json:"limit" validate:"omitempty,gte=1,lte=100"`
}

// Response DTOs

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs       []AuditLogResponse `json:"logs"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"total_pages"`
}
