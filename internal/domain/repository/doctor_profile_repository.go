package repository

import (
	"medical-messenger/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DoctorProfileRepository interface {
	Create(db *gorm.DB, profile *entity.DoctorProfile) error
	FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error)
	Search(db *gorm.DB, filter *entity.DoctorFilter, limit, offset int) ([]entity.DoctorProfile, int64, error)
	FindTopRated(db *gorm.DB, limit int, minRating float64) ([]entity.DoctorProfile, error)
	Statistics(db *gorm.DB) (*entity.DoctorStatistics, error)
}
