package middleware

import (
	"context"
	"net/http"
	"strings"

	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/service"
	"medical-messenger/pkg/apperror"
	"medical-messenger/pkg/response"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
)

type AuthMiddleware struct {
	accessGate *service.AccessGate
	log        *logrus.Logger
}

func NewAuthMiddleware(accessGate *service.AccessGate, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		accessGate: accessGate,
		log:        log,
	}
}

func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(w, "Invalid authorization header format")
			return
		}

		identity, err := m.accessGate.Resolve(r.Context(), parts[1])
		if err != nil {
			if apperror.KindOf(err) == apperror.KindUnauthenticated {
				response.Unauthorized(w, err.Error())
				return
			}
			m.log.Warnf("Failed to validate token: %+v", err)
			response.InternalServerError(w, "Failed to validate token")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, *identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentityFromContext extracts the caller resolved by Authenticate
func GetIdentityFromContext(ctx context.Context) (entity.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(entity.Identity)
	return identity, ok
}
