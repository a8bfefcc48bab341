package repository

import (
	"errors"
	"testing"
	"time"

	"medical-messenger/internal/domain/entity"
	domainRepo "medical-messenger/internal/domain/repository"
	"medical-messenger/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSubscriptionPairIsUnique(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRepository()
	patient := testutil.CreatePatient(t, db)
	doctor := testutil.CreateDoctor(t, db)

	testutil.CreateSubscription(t, db, patient.ID, doctor.UserID, entity.SubscriptionStatusDenied)

	err := repo.Create(db, &entity.Subscription{
		PatientID:   patient.ID,
		DoctorID:    doctor.UserID,
		Status:      entity.SubscriptionStatusRequested,
		RequestedAt: time.Now().UTC(),
		IsActive:    true,
	})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	found, err := repo.FindByPair(db, patient.ID, doctor.UserID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, entity.SubscriptionStatusDenied, found.Status)

	none, err := repo.FindByPair(db, doctor.UserID, patient.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTransitionFromRequestedOnlyOnce(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRepository()
	patient := testutil.CreatePatient(t, db)
	doctor := testutil.CreateDoctor(t, db)
	sub := testutil.CreateSubscription(t, db, patient.ID, doctor.UserID, entity.SubscriptionStatusRequested)

	now := time.Now().UTC()
	note := "See you Monday"
	affected, err := repo.TransitionFromRequested(db, sub.ID, domainRepo.SubscriptionTransition{
		Status:          entity.SubscriptionStatusApproved,
		ResponseMessage: &note,
		RespondedAt:     &now,
		IsActive:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.TransitionFromRequested(db, sub.ID, domainRepo.SubscriptionTransition{
		Status: entity.SubscriptionStatusDenied,
	})
	require.NoError(t, err)
	assert.Zero(t, affected)

	stored, err := repo.FindByID(db, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SubscriptionStatusApproved, stored.Status)
	require.NotNil(t, stored.ResponseMessage)
	assert.Equal(t, note, *stored.ResponseMessage)
	assert.NotNil(t, stored.RespondedAt)
	require.NotNil(t, stored.Patient)
	require.NotNil(t, stored.Doctor)
	assert.Equal(t, doctor.User.Email, stored.Doctor.Email)
}

func TestFindMineFilters(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRepository()
	patient := testutil.CreatePatient(t, db)
	doctorA := testutil.CreateDoctor(t, db)
	doctorB := testutil.CreateDoctor(t, db)

	a := testutil.CreateSubscription(t, db, patient.ID, doctorA.UserID, entity.SubscriptionStatusApproved)
	b := testutil.CreateSubscription(t, db, patient.ID, doctorB.UserID, entity.SubscriptionStatusRequested)
	require.NoError(t, db.Model(a).UpdateColumn("created_at", time.Now().UTC().Add(-time.Hour)).Error)

	mine, err := repo.FindMine(db, &entity.SubscriptionFilter{PatientID: &patient.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b.ID, mine[0].ID)
	assert.Equal(t, a.ID, mine[1].ID)

	approved := entity.SubscriptionStatusApproved
	mine, err = repo.FindMine(db, &entity.SubscriptionFilter{PatientID: &patient.ID, Status: &approved})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	mine, err = repo.FindMine(db, &entity.SubscriptionFilter{DoctorID: &doctorB.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, b.ID, mine[0].ID)

	mine, err = repo.FindMine(db, &entity.SubscriptionFilter{ParticipantID: &doctorA.UserID})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	mine, err = repo.FindMine(db, &entity.SubscriptionFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestFindExpired(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRepository()
	patient := testutil.CreatePatient(t, db)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expire := func(sub *entity.Subscription, at time.Time) {
		require.NoError(t, db.Model(sub).UpdateColumn("expires_at", at).Error)
	}

	older := testutil.CreateSubscription(t, db, patient.ID, testutil.CreateDoctor(t, db).UserID, entity.SubscriptionStatusRequested)
	expire(older, now.Add(-48*time.Hour))
	newer := testutil.CreateSubscription(t, db, patient.ID, testutil.CreateDoctor(t, db).UserID, entity.SubscriptionStatusRequested)
	expire(newer, now.Add(-time.Hour))
	future := testutil.CreateSubscription(t, db, patient.ID, testutil.CreateDoctor(t, db).UserID, entity.SubscriptionStatusRequested)
	expire(future, now.Add(time.Hour))
	answered := testutil.CreateSubscription(t, db, patient.ID, testutil.CreateDoctor(t, db).UserID, entity.SubscriptionStatusApproved)
	expire(answered, now.Add(-time.Hour))
	testutil.CreateSubscription(t, db, patient.ID, testutil.CreateDoctor(t, db).UserID, entity.SubscriptionStatusRequested)

	expired, err := repo.FindExpired(db, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 2)
	assert.Equal(t, older.ID, expired[0].ID)
	assert.Equal(t, newer.ID, expired[1].ID)

	expired, err = repo.FindExpired(db, now, 1)
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}

func TestFindByIDMissing(t *testing.T) {
	db := testutil.NewTestDB(t)

	sub, err := NewSubscriptionRepository().FindByID(db, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, sub)
}
