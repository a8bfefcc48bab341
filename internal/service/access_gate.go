package service

import (
	"context"

	"medical-messenger/internal/domain/entity"
	"medical-messenger/pkg/apperror"
	"medical-messenger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidToken = apperror.New(apperror.KindUnauthenticated, "invalid or expired token")
	ErrTokenRevoked = apperror.New(apperror.KindUnauthenticated, "token has been revoked")
)

// Decision is the outcome of an authorization check.
type Decision int

const (
	Forbidden Decision = iota
	Allowed
)

// Authorize is the single authorization rule for mutating operations.
// An empty requiredRole accepts any role; a nil ownerID skips the ownership check.
func Authorize(caller entity.Identity, requiredRole string, ownerID uuid.UUID) Decision {
	if requiredRole != "" && caller.Role != requiredRole {
		return Forbidden
	}
	if ownerID != uuid.Nil && caller.UserID != ownerID {
		return Forbidden
	}
	return Allowed
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// AccessGate turns session tokens into identities. Tokens are JWTs whose ids
// must also be present in the allowlist.
type AccessGate struct {
	jwtService *jwt.JWTService
	tokens     TokenStore
	log        *logrus.Logger
}

func NewAccessGate(jwtService *jwt.JWTService, tokens TokenStore, log *logrus.Logger) *AccessGate {
	return &AccessGate{
		jwtService: jwtService,
		tokens:     tokens,
		log:        log,
	}
}

// IssueTokens creates and allowlists a new access/refresh pair for user.
func (g *AccessGate) IssueTokens(ctx context.Context, userID uuid.UUID, email, role string) (*TokenPair, error) {
	accessToken, accessTokenID, err := g.jwtService.GenerateAccessToken(userID, email, role)
	if err != nil {
		g.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := g.jwtService.GenerateRefreshToken(userID, email, role)
	if err != nil {
		g.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := g.tokens.Allow(ctx, jwt.AccessToken, userID, accessTokenID, g.jwtService.GetAccessExpiry()); err != nil {
		g.log.Warnf("Failed to store access token: %+v", err)
		return nil, err
	}

	if err := g.tokens.Allow(ctx, jwt.RefreshToken, userID, refreshTokenID, g.jwtService.GetRefreshExpiry()); err != nil {
		g.log.Warnf("Failed to store refresh token: %+v", err)
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(g.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

// Resolve validates an access token and returns the identity it carries.
func (g *AccessGate) Resolve(ctx context.Context, token string) (*entity.Identity, error) {
	claims, err := g.validate(ctx, token, jwt.AccessToken)
	if err != nil {
		return nil, err
	}

	return &entity.Identity{
		UserID:  claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
		TokenID: claims.TokenID,
	}, nil
}

// Refresh rotates the refresh token. The role from the old token is carried
// over unchanged.
func (g *AccessGate) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := g.validate(ctx, refreshToken, jwt.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := g.tokens.Revoke(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID); err != nil {
		g.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	return g.IssueTokens(ctx, claims.UserID, claims.Email, claims.Role)
}

// Revoke removes the caller's access token and, when it belongs to the same
// user, the given refresh token.
func (g *AccessGate) Revoke(ctx context.Context, caller entity.Identity, refreshToken string) error {
	if err := g.tokens.Revoke(ctx, jwt.AccessToken, caller.UserID, caller.TokenID); err != nil {
		g.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if refreshToken == "" {
		return nil
	}

	claims, err := g.jwtService.ValidateToken(refreshToken)
	if err != nil || claims.TokenType != jwt.RefreshToken || claims.UserID != caller.UserID {
		return nil
	}

	if err := g.tokens.Revoke(ctx, jwt.RefreshToken, claims.UserID, claims.TokenID); err != nil {
		g.log.Warnf("Failed to delete refresh token: %+v", err)
		return err
	}
	return nil
}

func (g *AccessGate) validate(ctx context.Context, token string, tokenType jwt.TokenType) (*jwt.Claims, error) {
	claims, err := g.jwtService.ValidateToken(token)
	if err != nil || claims.TokenType != tokenType || claims.TokenID == "" {
		return nil, ErrInvalidToken
	}

	allowed, err := g.tokens.IsAllowed(ctx, tokenType, claims.UserID, claims.TokenID)
	if err != nil {
		g.log.Warnf("Failed to check %s token: %+v", tokenType, err)
		return nil, err
	}
	if !allowed {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}
