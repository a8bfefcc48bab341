package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/testutil"
	"medical-messenger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type chatFixture struct {
	db          *gorm.DB
	uc          MessageUsecase
	broadcaster *testutil.Broadcaster
	patient     *entity.User
	doctor      *entity.DoctorProfile
}

func newChatFixture(t *testing.T, status entity.SubscriptionStatus) (*chatFixture, *entity.Subscription) {
	t.Helper()
	db := testutil.NewTestDB(t)
	broadcaster := testutil.NewBroadcaster()
	f := &chatFixture{
		db:          db,
		uc:          NewMessageUsecase(db, testutil.NewLogger(), repository.NewSubscriptionRepository(), repository.NewMessageRepository(), broadcaster),
		broadcaster: broadcaster,
		patient:     testutil.CreatePatient(t, db),
		doctor:      testutil.CreateDoctor(t, db),
	}
	sub := testutil.CreateSubscription(t, db, f.patient.ID, f.doctor.UserID, status)
	return f, sub
}

func TestSendPersistsAndPublishes(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)

	res, err := f.uc.Send(context.Background(), testutil.Identity(f.patient), sub.ID, &dto.SendMessageRequest{Body: " Hello doctor "})
	require.NoError(t, err)
	assert.Equal(t, "Hello doctor", res.Body)
	assert.Equal(t, f.patient.ID, res.FromUserID)
	assert.Equal(t, f.doctor.UserID, res.ToUserID)

	var stored entity.Message
	require.NoError(t, f.db.First(&stored, "id = ?", res.ID).Error)
	assert.Equal(t, sub.ID, stored.SubscriptionID)

	require.Len(t, f.broadcaster.Published, 1)
	assert.Equal(t, res.ID, f.broadcaster.Published[0].ID)

	reply, err := f.uc.Send(context.Background(), testutil.Identity(&f.doctor.User), sub.ID, &dto.SendMessageRequest{Body: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, reply.ToUserID)
}

func TestSendSurvivesPublishFailure(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)
	f.broadcaster.Err = errors.New("redis: connection refused")

	res, err := f.uc.Send(context.Background(), testutil.Identity(f.patient), sub.ID, &dto.SendMessageRequest{Body: "still stored"})
	require.NoError(t, err)

	var count int64
	require.NoError(t, f.db.Model(&entity.Message{}).Where("id = ?", res.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSendRequiresApprovedSubscription(t *testing.T) {
	for _, status := range []entity.SubscriptionStatus{
		entity.SubscriptionStatusRequested,
		entity.SubscriptionStatusDenied,
		entity.SubscriptionStatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			f, sub := newChatFixture(t, status)

			_, err := f.uc.Send(context.Background(), testutil.Identity(f.patient), sub.ID, &dto.SendMessageRequest{Body: "hello"})
			assert.ErrorIs(t, err, ErrSubscriptionNotApproved)
			assert.Empty(t, f.broadcaster.Published)
		})
	}
}

func TestSendRejectsOutsiders(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)
	stranger := testutil.CreatePatient(t, f.db)
	admin := testutil.CreateAdmin(t, f.db)

	for _, caller := range []*entity.User{stranger, admin} {
		_, err := f.uc.Send(context.Background(), testutil.Identity(caller), sub.ID, &dto.SendMessageRequest{Body: "hello"})
		assertKind(t, err, apperror.KindForbidden)
	}

	_, err := f.uc.Send(context.Background(), testutil.Identity(f.patient), uuid.New(), &dto.SendMessageRequest{Body: "hello"})
	assertKind(t, err, apperror.KindNotFound)

	_, err = f.uc.Send(context.Background(), testutil.Identity(f.patient), sub.ID, &dto.SendMessageRequest{Body: "   "})
	assertKind(t, err, apperror.KindValidation)
}

func TestListReturnsLatestInOrder(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)

	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, f.db.Create(&entity.Message{
			SubscriptionID: sub.ID,
			FromUserID:     f.patient.ID,
			ToUserID:       f.doctor.UserID,
			Body:           fmt.Sprintf("message %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	res, err := f.uc.List(context.Background(), testutil.Identity(&f.doctor.User), sub.ID, &dto.MessageListQuery{Limit: intPtr(3)})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	assert.Equal(t, "message 2", res.Messages[0].Body)
	assert.Equal(t, "message 4", res.Messages[2].Body)

	stranger := testutil.CreatePatient(t, f.db)
	_, err = f.uc.List(context.Background(), testutil.Identity(stranger), sub.ID, &dto.MessageListQuery{})
	assertKind(t, err, apperror.KindForbidden)
}

func TestStreamRelaysRoomMessages(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := f.uc.Stream(ctx, testutil.Identity(&f.doctor.User), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.broadcaster.Listeners(sub.ID))

	sent, err := f.uc.Send(context.Background(), testutil.Identity(f.patient), sub.ID, &dto.SendMessageRequest{Body: "ping"})
	require.NoError(t, err)

	select {
	case msg := <-stream:
		assert.Equal(t, sent.ID, msg.ID)
		assert.Equal(t, "ping", msg.Body)
	case <-time.After(time.Second):
		t.Fatal("message was not relayed")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-stream
		return !open
	}, time.Second, 10*time.Millisecond)
}

func TestStreamRejectsOutsiders(t *testing.T) {
	f, sub := newChatFixture(t, entity.SubscriptionStatusApproved)
	stranger := testutil.CreatePatient(t, f.db)

	_, err := f.uc.Stream(context.Background(), testutil.Identity(stranger), sub.ID)
	assertKind(t, err, apperror.KindForbidden)
	assert.Zero(t, f.broadcaster.Listeners(sub.ID))
}
