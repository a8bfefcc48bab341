// Package testutil holds shared fixtures for store-backed tests.
package testutil

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"medical-messenger/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a migrated SQLite database in a temp dir with the roles seeded.
// A single connection serializes concurrent writers the way row locks would.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "medmsg.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.DoctorProfile{},
		&entity.DoctorSpecialty{},
		&entity.DoctorAvailability{},
		&entity.Subscription{},
		&entity.Message{},
		&entity.AuditLog{},
	))

	require.NoError(t, db.Create(&[]entity.Role{
		{ID: entity.RoleIDAdmin, RoleName: entity.RoleAdmin},
		{ID: entity.RoleIDDoctor, RoleName: entity.RoleDoctor},
		{ID: entity.RoleIDPatient, RoleName: entity.RolePatient},
	}).Error)

	return db
}

// NewLogger returns a logger that discards output.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
