package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, 50*time.Millisecond)
	sql := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), sql, nil)
	gl.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	gl.Trace(context.Background(), time.Now(), sql, errors.New("db down"))
	gl.Trace(context.Background(), time.Now(), sql, gormlogger.ErrRecordNotFound)

	assert.Equal(t, 2, recorded.FilterMessage("SQL Query").Len(), "record not found is not an error")
	assert.Equal(t, 1, recorded.FilterMessage("Slow SQL").Len())
	assert.Equal(t, 1, recorded.FilterMessage("SQL Error").Len())
}

func TestGormLogger_Silent(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info, 0).LogMode(gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("x"))
	assert.Equal(t, 0, recorded.Len())
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("anything"))
}
