package repository

import (
	"time"

	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByEmail(db *gorm.DB, email string) (*entity.User, error)
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
	UpdateLastLogin(db *gorm.DB, id uuid.UUID, at time.Time) error
}
