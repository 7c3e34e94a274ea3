package database

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.Contains(t, names, "migrations/000001_init.up.sql")
	assert.Contains(t, names, "migrations/000001_init.down.sql")

	up, err := fs.ReadFile(migrationFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)
	sql := string(up)
	for _, want := range []string{
		"UNIQUE (user_id, date)",
		"check_out_time IS NULL OR check_out_time >= check_in_time",
		"policy_snapshot             JSONB",
		"WHERE check_out_time IS NULL",
	} {
		assert.True(t, strings.Contains(sql, want), "missing %q", want)
	}
}

func observed(level gormLogger.LogLevel) (gormLogger.Interface, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core)).LogMode(level), logs
}

func TestGormLogger_Trace(t *testing.T) {
	fc := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	l, logs := observed(gormLogger.Warn)
	l.Trace(ctx, time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len(), "fast query di level warn tidak dicatat")

	l.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "[SLOW SQL]", logs.All()[0].Message)

	l.Trace(ctx, time.Now(), fc, errors.New("boom"))
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "[SQL ERROR]", logs.All()[1].Message)

	l.Trace(ctx, time.Now(), fc, gorm.ErrRecordNotFound)
	assert.Equal(t, 2, logs.Len(), "record not found bukan error")

	silent, slogs := observed(gormLogger.Silent)
	silent.Trace(ctx, time.Now().Add(-time.Second), fc, errors.New("boom"))
	assert.Equal(t, 0, slogs.Len())
}
