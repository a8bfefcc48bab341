package repository

import (
	"time"

	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionTransition carries the columns written alongside a status change
type SubscriptionTransition struct {
	Status          entity.SubscriptionStatus
	ResponseMessage *string
	RespondedAt     *time.Time
	IsActive        bool
}

type SubscriptionRepository interface {
	Create(db *gorm.DB, subscription *entity.Subscription) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Subscription, error)
	FindByPair(db *gorm.DB, patientID, doctorID uuid.UUID) (*entity.Subscription, error)
	FindMine(db *gorm.DB, filter *entity.SubscriptionFilter) ([]entity.Subscription, error)
	FindExpired(db *gorm.DB, now time.Time, limit int) ([]entity.Subscription, error)
	TransitionFromRequested(db *gorm.DB, id uuid.UUID, transition SubscriptionTransition) (int64, error)
}
