package usecase

import (
	"context"
	"strings"

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

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 200
)

// MessageUsecase is the chat between the two parties of a subscription.
type MessageUsecase interface {
	Send(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error)
	List(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, query *dto.MessageListQuery) (*dto.MessageListResponse, error)
	// Stream relays messages published to the subscription's room until ctx is done.
	Stream(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (<-chan entity.Message, error)
}

type messageUsecase struct {
	db               *gorm.DB
	log              *logrus.Logger
	subscriptionRepo repository.SubscriptionRepository
	messageRepo      repository.MessageRepository
	broadcaster      service.ChatBroadcaster
}

func NewMessageUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	subscriptionRepo repository.SubscriptionRepository,
	messageRepo repository.MessageRepository,
	broadcaster service.ChatBroadcaster,
) MessageUsecase {
	return &messageUsecase{
		db:               db,
		log:              log,
		subscriptionRepo: subscriptionRepo,
		messageRepo:      messageRepo,
		broadcaster:      broadcaster,
	}
}

// Send persists a message and then broadcasts it. Broadcasting is best
// effort; the stored message is the record.
func (u *messageUsecase) Send(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, req *dto.SendMessageRequest) (*dto.MessageResponse, error) {
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperror.Validation(map[string]string{"body": "body is required"})
	}

	subscription, err := u.findForParty(ctx, caller, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !subscription.IsApproved() {
		return nil, ErrSubscriptionNotApproved
	}

	message := &entity.Message{
		SubscriptionID: subscription.ID,
		FromUserID:     caller.UserID,
		ToUserID:       subscription.Counterpart(caller.UserID),
		Body:           body,
	}

	if err := u.messageRepo.Create(u.db.WithContext(ctx), message); err != nil {
		u.log.Warnf("Failed to create message: %+v", err)
		return nil, err
	}

	if err := u.broadcaster.Publish(ctx, message); err != nil {
		u.log.Warnf("Failed to publish message %s to %s: %+v", message.ID, service.ChatChannel(subscription.ID), err)
	}

	return converter.MessageToResponse(message), nil
}

// List returns the latest messages of a subscription, oldest first.
func (u *messageUsecase) List(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID, query *dto.MessageListQuery) (*dto.MessageListResponse, error) {
	if _, err := u.findForParty(ctx, caller, subscriptionID); err != nil {
		return nil, err
	}

	limit := defaultMessageLimit
	if query.Limit != nil {
		limit = min(*query.Limit, maxMessageLimit)
	}

	messages, err := u.messageRepo.FindLatestBySubscriptionID(u.db.WithContext(ctx), subscriptionID, limit)
	if err != nil {
		u.log.Warnf("Failed to list messages of %s: %+v", subscriptionID, err)
		return nil, err
	}

	return &dto.MessageListResponse{
		Messages: converter.MessagesToResponses(messages),
		Total:    len(messages),
	}, nil
}

func (u *messageUsecase) Stream(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (<-chan entity.Message, error) {
	if _, err := u.findForParty(ctx, caller, subscriptionID); err != nil {
		return nil, err
	}

	messages, err := u.broadcaster.Subscribe(ctx, subscriptionID)
	if err != nil {
		u.log.Warnf("Failed to subscribe to %s: %+v", service.ChatChannel(subscriptionID), err)
		return nil, err
	}
	return messages, nil
}

func (u *messageUsecase) findForParty(ctx context.Context, caller entity.Identity, subscriptionID uuid.UUID) (*entity.Subscription, error) {
	subscription, err := u.subscriptionRepo.FindByID(u.db.WithContext(ctx), subscriptionID)
	if err != nil {
		u.log.Warnf("Failed to find subscription %s: %+v", subscriptionID, err)
		return nil, err
	}
	if subscription == nil {
		return nil, ErrSubscriptionNotFound
	}
	if !isParty(caller, subscription) {
		return nil, ErrNotSubscriptionParty
	}
	return subscription, nil
}
