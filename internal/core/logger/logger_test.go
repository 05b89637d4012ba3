package logger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	l, done := New(Options{Level: "debug", JSON: true, File: file, MaxSizeMB: 1})
	l.Info("hello", zap.String("k", "v"))
	done()
	assert.FileExists(t, file)
}

func TestToWriterAndStdLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zap.New(core)

	_, err := fmt.Fprintln(ToWriter(l, zapcore.InfoLevel), "gin says hi")
	require.NoError(t, err)

	undo := RedirectStdLog(l, zapcore.WarnLevel)
	log.Print("std says hi")
	undo()

	all := logs.All()
	require.Len(t, all, 2)
	assert.Equal(t, "gin says hi", all[0].Message)
	assert.Equal(t, zapcore.WarnLevel, all[1].Level)
}

func TestGormLoggerTrace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g := NewGormLogger(zap.New(core), gormlogger.Warn)
	fc := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	g.Trace(ctx, time.Now(), fc, nil)
	assert.Zero(t, logs.Len(), "fast query below info level")

	g.Trace(ctx, time.Now(), fc, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len(), "not found is not an error")

	g.Trace(ctx, time.Now(), fc, errors.New("boom"))
	g.Trace(ctx, time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "sql failed", logs.All()[0].Message)
	assert.Equal(t, "slow sql", logs.All()[1].Message)

	g.LogMode(gormlogger.Info).Trace(ctx, time.Now(), fc, nil)
	assert.Equal(t, 3, logs.Len())

	g.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), fc, errors.New("boom"))
	assert.Equal(t, 3, logs.Len())
}
