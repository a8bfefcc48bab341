package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"medical-messenger/config"
	"medical-messenger/internal/domain/entity"
	"medical-messenger/internal/repository"
	"medical-messenger/internal/service"
	"medical-messenger/internal/testutil"
	"medical-messenger/pkg/apperror"
	"medical-messenger/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret-with-at-least-32-characters!"

func newAccessGate(tokens service.TokenStore) *service.AccessGate {
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        testSecret,
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	return service.NewAccessGate(jwtService, tokens, testutil.NewLogger())
}

func newAuditService() service.AuditService {
	return service.NewAuditService(testutil.NewLogger(), repository.NewAuditLogRepository())
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "unexpected error: %v", err)
}

func auditActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var actions []string
	require.NoError(t, db.Model(&entity.AuditLog{}).Order("id ASC").Pluck("action", &actions).Error)
	return actions
}

// failingAuditService rejects every entry, to prove audit and change share a transaction.
type failingAuditService struct{}

var errAuditDown = errors.New("audit store unavailable")

func (failingAuditService) LogCreate(context.Context, *gorm.DB, *uuid.UUID, string, string, string, interface{}) error {
	return errAuditDown
}

func (failingAuditService) LogUpdate(context.Context, *gorm.DB, *uuid.UUID, string, string, string, interface{}, interface{}) error {
	return errAuditDown
}

func (failingAuditService) LogEvent(context.Context, *gorm.DB, *uuid.UUID, string, string, string) error {
	return errAuditDown
}
