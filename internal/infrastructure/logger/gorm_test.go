package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Warn)

	assert.Equal(t, gormlogger.Warn, gormLog.logLevel)
	assert.Equal(t, DefaultSlowQueryThreshold, gormLog.slowThreshold)
	assert.False(t, gormLog.logRecordMissing)
	assert.True(t, gormLog.redactParams)
}

func TestGormLogger_Options(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithRecordNotFound(true),
		WithBoundParams(true),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.True(t, gormLog.logRecordMissing)
	assert.False(t, gormLog.redactParams)

	zeroThreshold, _ := newObservedGormLogger(gormlogger.Info, WithSlowThreshold(0))
	assert.Equal(t, DefaultSlowQueryThreshold, zeroThreshold.slowThreshold)
}

func TestGormLogger_LogModeCopies(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)
	switched, ok := gormLog.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, gormlogger.Error, switched.logLevel)
}

func TestGormLogger_ParamsFilter(t *testing.T) {
	var iface gormlogger.Interface = NewGormLogger(zap.NewNop(), gormlogger.Info)
	_, ok := iface.(gorm.ParamsFilter)
	require.True(t, ok)

	redacted, _ := newObservedGormLogger(gormlogger.Info)
	sql, params := redacted.ParamsFilter(context.Background(), "UPDATE merchant_settings SET carrier_api_key = ?", "sealed")
	assert.Equal(t, "UPDATE merchant_settings SET carrier_api_key = ?", sql)
	assert.Nil(t, params)

	bound, _ := newObservedGormLogger(gormlogger.Info, WithBoundParams(true))
	_, params = bound.ParamsFilter(context.Background(), "SELECT 1 WHERE id = ?", 7)
	assert.Equal(t, []any{7}, params)
}

func TestGormLogger_Messages(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		log     func(*GormLogger, context.Context)
		want    zapcore.Level
		message string
	}{
		{"info", gormlogger.Info, func(l *GormLogger, ctx context.Context) { l.Info(ctx, "opened %s", "sqlite") }, zapcore.InfoLevel, "opened sqlite"},
		{"warn", gormlogger.Warn, func(l *GormLogger, ctx context.Context) { l.Warn(ctx, "retry %d", 2) }, zapcore.WarnLevel, "retry 2"},
		{"error", gormlogger.Error, func(l *GormLogger, ctx context.Context) { l.Error(ctx, "lost connection") }, zapcore.ErrorLevel, "lost connection"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormLog, recorded := newObservedGormLogger(tt.level)
			tt.log(gormLog, context.Background())

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.want, logs[0].Level)
			assert.Equal(t, tt.message, logs[0].Message)
		})
	}
}

func TestGormLogger_MessagesBelowLevelSuppressed(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Error)
	gormLog.Info(context.Background(), "ignored")
	gormLog.Warn(context.Background(), "ignored")

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		opts    []GormLoggerOption
		elapsed time.Duration
		err     error
		want    string
		lvl     zapcore.Level
	}{
		{name: "failed statement", level: gormlogger.Error, err: errors.New("boom"), want: "SQL Error", lvl: zapcore.ErrorLevel},
		{name: "missing record ignored", level: gormlogger.Error, err: gormlogger.ErrRecordNotFound},
		{name: "missing record logged when enabled", level: gormlogger.Error, opts: []GormLoggerOption{WithRecordNotFound(true)},
			err: gormlogger.ErrRecordNotFound, want: "SQL Error", lvl: zapcore.ErrorLevel},
		{name: "slow query", level: gormlogger.Warn, opts: []GormLoggerOption{WithSlowThreshold(time.Millisecond)},
			elapsed: time.Second, want: "SLOW SQL >= 1ms", lvl: zapcore.WarnLevel},
		{name: "fast query at warn is quiet", level: gormlogger.Warn},
		{name: "query at info", level: gormlogger.Info, want: "SQL Query", lvl: zapcore.DebugLevel},
		{name: "silent", level: gormlogger.Silent, err: errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormLog, recorded := newObservedGormLogger(tt.level, tt.opts...)
			gormLog.Trace(context.Background(), time.Now().Add(-tt.elapsed), query("SELECT * FROM shipment_records", 3), tt.err)

			logs := recorded.All()
			if tt.want == "" {
				assert.Empty(t, logs)
				return
			}
			require.Len(t, logs, 1)
			assert.Equal(t, tt.want, logs[0].Message)
			assert.Equal(t, tt.lvl, logs[0].Level)
			assert.Equal(t, int64(3), logs[0].ContextMap()["rows"])
		})
	}
}

func TestGormLogger_TraceCarriesContextFields(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Info)

	ctx := WithRequestID(context.Background(), "req-42")
	ctx = WithShopDomain(ctx, "demo.myshopify.com")
	ctx = WithWebhookTopic(ctx, "orders/create")
	gormLog.Trace(ctx, time.Now(), query("INSERT INTO shipment_records", 1), nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "demo.myshopify.com", fields["shop_domain"])
	assert.Equal(t, "orders/create", fields["webhook_topic"])
	assert.Equal(t, "gorm", logs[0].LoggerName)
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{" DEBUG ", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
