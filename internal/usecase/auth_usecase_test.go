package usecase

import (
	"context"
	"testing"

	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/service"
	"medical-messenger/internal/testutil"
	"medical-messenger/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newAuthUsecase(t *testing.T, db *gorm.DB) (AuthUsecase, *service.AccessGate, *testutil.TokenStore) {
	t.Helper()
	tokens := testutil.NewTokenStore()
	gate := newAccessGate(tokens)
	uc := NewAuthUsecase(db, testutil.NewLogger(), repository.NewUserRepository(), gate, newAuditService())
	return uc, gate, tokens
}

func registerRequest(email string) *dto.RegisterRequest {
	dob := "1990-04-12"
	return &dto.RegisterRequest{
		Email:       email,
		Password:    "s3cure-passw0rd",
		FirstName:   "Jane",
		LastName:    "Doe",
		DateOfBirth: &dob,
	}
}

func TestRegisterCreatesPatient(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, _, _ := newAuthUsecase(t, db)

	res, err := uc.Register(context.Background(), registerRequest("  Jane.Doe@Example.com "))
	require.NoError(t, err)

	assert.Equal(t, "jane.doe@example.com", res.Email)
	assert.Equal(t, entity.RolePatient, res.Role)
	assert.Equal(t, "Jane Doe", res.FullName)
	require.NotNil(t, res.DateOfBirth)
	assert.Equal(t, "1990-04-12", *res.DateOfBirth)
	assert.True(t, res.IsActive)
	assert.False(t, res.EmailVerified)

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", res.ID).Error)
	assert.Equal(t, entity.RoleIDPatient, stored.RoleID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cure-passw0rd")))

	assert.Equal(t, []string{entity.AuditActionUserRegister}, auditActions(t, db))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, _, _ := newAuthUsecase(t, db)

	_, err := uc.Register(context.Background(), registerRequest("jane@example.com"))
	require.NoError(t, err)

	_, err = uc.Register(context.Background(), registerRequest("JANE@example.com"))
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
	assertKind(t, err, apperror.KindConflict)
}

func TestRegisterRejectsBadDate(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, _, _ := newAuthUsecase(t, db)

	req := registerRequest("jane@example.com")
	bad := "12/04/1990"
	req.DateOfBirth = &bad

	_, err := uc.Register(context.Background(), req)
	assertKind(t, err, apperror.KindValidation)
}

func TestLoginIssuesTokensWithRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, gate, tokens := newAuthUsecase(t, db)
	doctor := testutil.CreateDoctor(t, db)

	res, err := uc.Login(context.Background(), &dto.LoginRequest{Email: doctor.User.Email, Password: testutil.Password})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, int64(900), res.ExpiresIn)
	assert.Equal(t, 2, tokens.Len())

	identity, err := gate.Resolve(context.Background(), res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, doctor.UserID, identity.UserID)
	assert.Equal(t, entity.RoleDoctor, identity.Role)

	var stored entity.User
	require.NoError(t, db.First(&stored, "id = ?", doctor.UserID).Error)
	assert.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, []string{entity.AuditActionUserLogin}, auditActions(t, db))
}

func TestLoginFailures(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, _, tokens := newAuthUsecase(t, db)
	patient := testutil.CreatePatient(t, db)
	inactive := testutil.CreateDoctor(t, db, testutil.Inactive())

	cases := map[string]*dto.LoginRequest{
		"unknown email":  {Email: "nobody@example.com", Password: testutil.Password},
		"wrong password": {Email: patient.Email, Password: "not-the-password"},
		"inactive":       {Email: inactive.User.Email, Password: testutil.Password},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Login(context.Background(), req)
			assertKind(t, err, apperror.KindUnauthenticated)
		})
	}
	assert.Zero(t, tokens.Len())
}

func TestRefreshTokenRotatesAndKeepsRole(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, gate, _ := newAuthUsecase(t, db)
	admin := testutil.CreateAdmin(t, db)

	login, err := uc.Login(context.Background(), &dto.LoginRequest{Email: admin.Email, Password: testutil.Password})
	require.NoError(t, err)

	refreshed, err := uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)

	identity, err := gate.Resolve(context.Background(), refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, identity.Role)

	_, err = uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assertKind(t, err, apperror.KindUnauthenticated)

	_, err = uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.AccessToken})
	assertKind(t, err, apperror.KindUnauthenticated)
}

func TestLogoutRevokesSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, gate, tokens := newAuthUsecase(t, db)
	patient := testutil.CreatePatient(t, db)

	login, err := uc.Login(context.Background(), &dto.LoginRequest{Email: patient.Email, Password: testutil.Password})
	require.NoError(t, err)
	identity, err := gate.Resolve(context.Background(), login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, uc.Logout(context.Background(), *identity, &dto.LogoutRequest{RefreshToken: login.RefreshToken}))
	assert.Zero(t, tokens.Len())

	_, err = gate.Resolve(context.Background(), login.AccessToken)
	assert.ErrorIs(t, err, service.ErrTokenRevoked)

	_, err = uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	assertKind(t, err, apperror.KindUnauthenticated)

	assert.Equal(t, []string{entity.AuditActionUserLogin, entity.AuditActionUserLogout}, auditActions(t, db))
}

func TestGetCurrentUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	uc, _, _ := newAuthUsecase(t, db)
	patient := testutil.CreatePatient(t, db)

	res, err := uc.GetCurrentUser(context.Background(), testutil.Identity(patient))
	require.NoError(t, err)
	assert.Equal(t, patient.ID, res.ID)
	assert.Equal(t, entity.RolePatient, res.Role)

	db.Delete(&entity.User{}, "id = ?", patient.ID)
	_, err = uc.GetCurrentUser(context.Background(), testutil.Identity(patient))
	assert.ErrorIs(t, err, ErrUserNotFound)
}
