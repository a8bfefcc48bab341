package usecase

import (
	"context"
	"strings"
	"time"

	"medical-messenger/internal/converter"
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/domain/repository"
	"medical-messenger/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthUsecase interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, caller entity.Identity, req *dto.LogoutRequest) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, caller entity.Identity) (*dto.UserResponse, error)
}

type authUsecase struct {
	db           *gorm.DB
	log          *logrus.Logger
	userRepo     repository.UserRepository
	accessGate   *service.AccessGate
	auditService service.AuditService
}

func NewAuthUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	accessGate *service.AccessGate,
	auditService service.AuditService,
) AuthUsecase {
	return &authUsecase{
		db:           db,
		log:          log,
		userRepo:     userRepo,
		accessGate:   accessGate,
		auditService: auditService,
	}
}

// Register creates a patient account. Doctors and admins are admitted by the
// seed command, never through self-registration.
func (u *authUsecase) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := normalizeEmail(req.Email)

	existing, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), email)
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyExists
	}

	var dob *time.Time
	if req.DateOfBirth != nil && *req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			return nil, ErrInvalidDateFormat
		}
		dob = &parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}

	user := &entity.User{
		RoleID:      entity.RoleIDPatient,
		Email:       email,
		Password:    string(hashedPassword),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Phone:       req.Phone,
		DateOfBirth: dob,
		Gender:      req.Gender,
		IsActive:    true,
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.userRepo.Create(tx, user); err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogCreate(ctx, tx, &user.ID, entity.AuditActionUserRegister, entity.AuditEntityUser, user.ID.String(), map[string]interface{}{
		"email": user.Email,
		"role":  entity.RolePatient,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Patient registered: id=%s", user.ID)
	return converter.UserToResponse(user), nil
}

// Login verifies the password, records the login and issues a token pair
// carrying the user's role.
func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(u.db.WithContext(ctx), normalizeEmail(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	role := user.Role.RoleName
	if role == "" {
		role = entity.RoleNameByID(user.RoleID)
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if err := u.userRepo.UpdateLastLogin(tx, user.ID, time.Now().UTC()); err != nil {
		u.log.Warnf("Failed to update last login: %+v", err)
		return nil, err
	}

	if err := u.auditService.LogEvent(ctx, tx, &user.ID, entity.AuditActionUserLogin, entity.AuditEntityUser, user.ID.String()); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	tokens, err := u.accessGate.IssueTokens(ctx, user.ID, user.Email, role)
	if err != nil {
		return nil, err
	}

	return tokenResponse(tokens), nil
}

func (u *authUsecase) Logout(ctx context.Context, caller entity.Identity, req *dto.LogoutRequest) error {
	if err := u.accessGate.Revoke(ctx, caller, req.RefreshToken); err != nil {
		return err
	}

	// The session is already gone; a missing audit entry must not resurrect it.
	if err := u.auditService.LogEvent(ctx, u.db.WithContext(ctx), &caller.UserID, entity.AuditActionUserLogout, entity.AuditEntityUser, caller.UserID.String()); err != nil {
		u.log.Warnf("Failed to audit logout of %s: %+v", caller.UserID, err)
	}

	return nil
}

func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	tokens, err := u.accessGate.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, err
	}

	return tokenResponse(tokens), nil
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, caller entity.Identity) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(u.db.WithContext(ctx), caller.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func tokenResponse(tokens *service.TokenPair) *dto.TokenResponse {
	return &dto.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
