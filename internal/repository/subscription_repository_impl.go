package repository

import (
	"errors"
	"time"

	"medical-messenger/internal/domain/entity"
	domainRepo "medical-messenger/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type subscriptionRepository struct{}

func NewSubscriptionRepository() domainRepo.SubscriptionRepository {
	return &subscriptionRepository{}
}

func (r *subscriptionRepository) Create(db *gorm.DB, subscription *entity.Subscription) error {
	return db.Omit(clause.Associations).Create(subscription).Error
}

func (r *subscriptionRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Subscription, error) {
	var subscription entity.Subscription
	err := db.Preload("Patient").Preload("Doctor").Where("id = ?", id).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *subscriptionRepository) FindByPair(db *gorm.DB, patientID, doctorID uuid.UUID) (*entity.Subscription, error) {
	var subscription entity.Subscription
	err := db.Where("patient_id = ? AND doctor_id = ?", patientID, doctorID).First(&subscription).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &subscription, nil
}

func (r *subscriptionRepository) FindMine(db *gorm.DB, filter *entity.SubscriptionFilter) ([]entity.Subscription, error) {
	query := db.Preload("Patient").Preload("Doctor")

	switch {
	case filter.PatientID != nil:
		query = query.Where("patient_id = ?", *filter.PatientID)
	case filter.DoctorID != nil:
		query = query.Where("doctor_id = ?", *filter.DoctorID)
	case filter.ParticipantID != nil:
		query = query.Where("(patient_id = ? OR doctor_id = ?)", *filter.ParticipantID, *filter.ParticipantID)
	default:
		return []entity.Subscription{}, nil
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var subscriptions []entity.Subscription
	err := query.Order("created_at DESC, id ASC").Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// FindExpired returns requested subscriptions whose expiry has passed, oldest first.
func (r *subscriptionRepository) FindExpired(db *gorm.DB, now time.Time, limit int) ([]entity.Subscription, error) {
	var subscriptions []entity.Subscription
	err := db.
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", entity.SubscriptionStatusRequested, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

// TransitionFromRequested moves a subscription out of "requested" ONLY if it is
// still in that state. Returns affected rows: 1 = this call won, 0 = already
// transitioned (prevents double-transition races).
func (r *subscriptionRepository) TransitionFromRequested(db *gorm.DB, id uuid.UUID, transition domainRepo.SubscriptionTransition) (int64, error) {
	updates := map[string]interface{}{
		"status":    transition.Status,
		"is_active": transition.IsActive,
	}
	if transition.ResponseMessage != nil {
		updates["response_message"] = *transition.ResponseMessage
	}
	if transition.RespondedAt != nil {
		updates["responded_at"] = *transition.RespondedAt
	}

	result := db.Model(&entity.Subscription{}).
		Where("id = ? AND status = ?", id, entity.SubscriptionStatusRequested).
		Updates(updates)
	return result.RowsAffected, result.Error
}
