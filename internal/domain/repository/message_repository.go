package repository

import (
	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(db *gorm.DB, message *entity.Message) error
	FindLatestBySubscriptionID(db *gorm.DB, subscriptionID uuid.UUID, limit int) ([]entity.Message, error)
}
