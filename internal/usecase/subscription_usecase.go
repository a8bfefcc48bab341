package usecase

import (
	"context"
	"time"

	"medical-messenger/config"
	"medical-messenger/internal/converter"
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/domain/repository"
	"medical-messenger/internal/service"
	"medical-messenger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubscriptionUsecase is the ledger of patient/doctor subscriptions.
// A subscription leaves "requested" exactly once.
type SubscriptionUsecase interface {
	Request(ctx context.Context, caller entity.Identity, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	UpdateStatus(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, req *dto.UpdateSubscriptionStatusRequest) (*dto.SubscriptionResponse, error)
	Cancel(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (*dto.SubscriptionResponse, error)
	Get(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (*dto.SubscriptionResponse, error)
	ListMine(ctx context.Context, caller entity.Identity, query *dto.SubscriptionListQuery) (*dto.SubscriptionListResponse, error)
}

type subscriptionUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	userRepo         repository.UserRepository
	subscriptionRepo repository.SubscriptionRepository
	auditService     service.AuditService
	cfg              config.SubscriptionConfig
	now              func() time.Time
}

func NewSubscriptionUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	subscriptionRepo repository.SubscriptionRepository,
	auditService service.AuditService,
	cfg config.SubscriptionConfig,
) SubscriptionUsecase {
	return &subscriptionUsecase{
		db:               db,
		log:              log,
		userRepo:         userRepo,
		subscriptionRepo: subscriptionRepo,
		auditService:     auditService,
		cfg:              cfg,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Request opens a subscription from the calling patient to a doctor.
//
// Flow:
// 1. Caller must be a patient
// 2. Doctor must exist and be active
// 3. No record may exist for the pair (the unique index backs this up)
// 4. Insert the request and its audit entry in one transaction
func (u *subscriptionUsecase) Request(ctx context.Context, caller entity.Identity, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if service.Authorize(caller, entity.RolePatient, uuid.Nil) != service.Allowed {
		return nil, ErrNotPatient
	}

	// The HTTP layer validates the id already; this guards callers that skip it.
	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		return nil, apperror.Validation(map[string]string{"doctorId": "doctorId must be a valid UUID"})
	}

	doctor, err := u.userRepo.FindByID(u.db.WithContext(ctx), doctorID)
	if err != nil {
		u.log.Warnf("Failed to find doctor %s: %+v", doctorID, err)
		return nil, err
	}
	if doctor == nil || doctor.RoleID != entity.RoleIDDoctor || !doctor.IsActive {
		return nil, ErrDoctorNotFound
	}

	existing, err := u.subscriptionRepo.FindByPair(u.db.WithContext(ctx), caller.UserID, doctorID)
	if err != nil {
		u.log.Warnf("Failed to check existing subscription: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrSubscriptionExists
	}

	now := u.now()
	subscription := &entity.Subscription{
		PatientID:            caller.UserID,
		DoctorID:             doctorID,
		Status:               entity.SubscriptionStatusRequested,
		RequestMessage:       req.RequestMessage,
		RequestedAt:          now,
		IsActive:             true,
		ConsentGiven:         req.ConsentGiven,
		PrivacyPolicyVersion: req.PrivacyPolicyVersion,
	}
	if u.cfg.RequestTTL > 0 {
		expiresAt := now.Add(u.cfg.RequestTTL)
		subscription.ExpiresAt = &expiresAt
	}
	if req.ConsentGiven {
		subscription.ConsentDate = &now
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.subscriptionRepo.Create(tx, subscription); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrSubscriptionExists
		}
		u.log.Warnf("Failed to create subscription: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &caller.UserID, entity.AuditActionSubscriptionRequest, entity.AuditEntitySubscription, subscription.ID.String(), map[string]interface{}{
		"patient_id": subscription.PatientID,
		"doctor_id":  subscription.DoctorID,
		"status":     subscription.Status,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Subscription requested: id=%s, patient=%s, doctor=%s", subscription.ID, caller.UserID, doctorID)
	return u.reload(ctx, subscription), nil
}

// UpdateStatus lets the subscribed doctor approve or deny a pending request.
func (u *subscriptionUsecase) UpdateStatus(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, req *dto.UpdateSubscriptionStatusRequest) (*dto.SubscriptionResponse, error) {
	subscription, err := u.find(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if service.Authorize(caller, entity.RoleDoctor, subscription.DoctorID) != service.Allowed {
		return nil, ErrNotSubscriptionDoctor
	}

	status := entity.SubscriptionStatus(req.Status)
	action := entity.AuditActionSubscriptionApprove
	if status == entity.SubscriptionStatusDenied {
		action = entity.AuditActionSubscriptionDeny
	}

	now := u.now()
	return u.transition(ctx, caller, subscription, action, repository.SubscriptionTransition{
		Status:          status,
		ResponseMessage: req.ResponseMessage,
		RespondedAt:     &now,
		IsActive:        status == entity.SubscriptionStatusApproved,
	})
}

// Cancel withdraws a pending request on behalf of the patient who made it.
func (u *subscriptionUsecase) Cancel(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (*dto.SubscriptionResponse, error) {
	subscription, err := u.find(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if service.Authorize(caller, entity.RolePatient, subscription.PatientID) != service.Allowed {
		return nil, ErrNotSubscriptionPatient
	}

	return u.transition(ctx, caller, subscription, entity.AuditActionSubscriptionCancel, repository.SubscriptionTransition{
		Status:   entity.SubscriptionStatusCancelled,
		IsActive: false,
	})
}

// transition applies a compare-and-set from "requested". Losing a race to a
// concurrent transition surfaces as a conflict, same as a stale read.
func (u *subscriptionUsecase) transition(ctx context.Context, caller entity.Identity, subscription *entity.Subscription, action string, change repository.SubscriptionTransition) (*dto.SubscriptionResponse, error) {
	if !subscription.IsRequested() {
		return nil, ErrSubscriptionNotPending
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	affected, err := u.subscriptionRepo.TransitionFromRequested(tx, subscription.ID, change)
	if err != nil {
		u.log.Warnf("Failed to update subscription %s: %+v", subscription.ID, err)
		return nil, err
	}
	if affected == 0 {
		return nil, ErrSubscriptionNotPending
	}

	if err := u.auditService.LogUpdate(ctx, tx, &caller.UserID, action, entity.AuditEntitySubscription, subscription.ID.String(),
		map[string]interface{}{"status": subscription.Status},
		map[string]interface{}{"status": change.Status},
	); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Subscription %s: %s -> %s by %s", subscription.ID, subscription.Status, change.Status, caller.UserID)
	return u.reload(ctx, subscription), nil
}

func (u *subscriptionUsecase) Get(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (*dto.SubscriptionResponse, error) {
	subscription, err := u.find(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	if !caller.IsAdmin() && !isParty(caller, subscription) {
		return nil, ErrNotSubscriptionParty
	}

	return converter.SubscriptionToResponse(subscription), nil
}

// ListMine returns the caller's subscriptions, newest first. Patients and
// doctors see their own side; other roles see any row they take part in.
func (u *subscriptionUsecase) ListMine(ctx context.Context, caller entity.Identity, query *dto.SubscriptionListQuery) (*dto.SubscriptionListResponse, error) {
	filter := &entity.SubscriptionFilter{}
	switch caller.Role {
	case entity.RolePatient:
		filter.PatientID = &caller.UserID
	case entity.RoleDoctor:
		filter.DoctorID = &caller.UserID
	default:
		filter.ParticipantID = &caller.UserID
	}
	if query.Status != "" {
		status := entity.SubscriptionStatus(query.Status)
		filter.Status = &status
	}

	subscriptions, err := u.subscriptionRepo.FindMine(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list subscriptions of %s: %+v", caller.UserID, err)
		return nil, err
	}

	return &dto.SubscriptionListResponse{
		Subscriptions: converter.SubscriptionsToResponses(subscriptions),
		Total:         len(subscriptions),
	}, nil
}

func (u *subscriptionUsecase) find(ctx context.Context, subscriptionID uuid.UUID) (*entity.Subscription, error) {
	subscription, err := u.subscriptionRepo.FindByID(u.db.WithContext(ctx), subscriptionID)
	if err != nil {
		u.log.Warnf("Failed to find subscription %s: %+v", subscriptionID, err)
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	return subscription, nil
}

// reload fetches the committed row with both parties. If that fails the
// write still succeeded, so the in-memory copy is returned instead.
func (u *subscriptionUsecase) reload(ctx context.Context, subscription *entity.Subscription) *dto.SubscriptionResponse {
	full, err := u.subscriptionRepo.FindByID(u.db.WithContext(ctx), subscription.ID)
	if err != nil || full == nil {
		u.log.Warnf("Failed to reload subscription %s: %+v", subscription.ID, err)
		return converter.SubscriptionToResponse(subscription)
	}
	return converter.SubscriptionToResponse(full)
}

// isParty authorizes the caller as either side of the subscription.
func isParty(caller entity.Identity, subscription *entity.Subscription) bool {
	return service.Authorize(caller, "", subscription.PatientID) == service.Allowed ||
		service.Authorize(caller, "", subscription.DoctorID) == service.Allowed
}
