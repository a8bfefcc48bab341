package repository

import (
	"slices"

	"medical-messenger/internal/domain/entity"
	domainRepo "medical-messenger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type messageRepository struct{}

func NewMessageRepository() domainRepo.MessageRepository {
	return &messageRepository{}
}

func (r *messageRepository) Create(db *gorm.DB, message *entity.Message) error {
	return db.Create(message).Error
}

// FindLatestBySubscriptionID returns the newest limit messages in chronological order.
func (r *messageRepository) FindLatestBySubscriptionID(db *gorm.DB, subscriptionID uuid.UUID, limit int) ([]entity.Message, error) {
	var messages []entity.Message
	err := db.Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	slices.Reverse(messages)
	return messages, nil
}
