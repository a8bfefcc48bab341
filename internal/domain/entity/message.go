package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a persisted chat line between the parties of a subscription
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;index" json:"subscription_id"`
	FromUserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"from_user_id"`
	ToUserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"to_user_id"`
	Body           string    `gorm:"type:text;not null" json:"body"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
