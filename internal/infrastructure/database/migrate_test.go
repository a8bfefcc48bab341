package database

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSchemaVersionUsesInjectedLogger(t *testing.T) {
	cases := []struct {
		name    string
		version uint
		dirty   bool
		err     error
		level   logrus.Level
		message string
	}{
		{"current", 1, false, nil, logrus.InfoLevel, "Database schema at version 1"},
		{"dirty", 2, true, nil, logrus.WarnLevel, "Database schema at version 2 is dirty"},
		{"empty", 0, false, migrate.ErrNilVersion, logrus.InfoLevel, "Database schema has no applied migrations"},
		{"unreadable", 0, false, errors.New("connection reset"), logrus.WarnLevel, "Failed to read schema version: connection reset"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, hook := test.NewNullLogger()

			logSchemaVersion(log, tc.version, tc.dirty, tc.err)

			require.Len(t, hook.AllEntries(), 1)
			assert.Equal(t, tc.level, hook.LastEntry().Level)
			assert.Equal(t, tc.message, hook.LastEntry().Message)
		})
	}
}

func TestLogSchemaVersionHonoursLevel(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.WarnLevel)

	logSchemaVersion(log, 3, false, nil)

	assert.Empty(t, hook.AllEntries())
}
