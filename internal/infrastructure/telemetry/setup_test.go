package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kvikk/backend/internal/infrastructure/config"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	base := zap.NewNop()

	tel, err := Setup(ctx, config.TelemetryConfig{ServiceName: "kvikk-shopify"}, "test", zapcore.InfoLevel, base)
	require.NoError(t, err)

	assert.False(t, tel.Tracer.IsEnabled())
	assert.False(t, tel.Meter.IsEnabled())
	assert.False(t, tel.Logs.IsEnabled())
	assert.False(t, tel.Profiler.IsEnabled())
	assert.Same(t, base, tel.Logger)
	require.NotNil(t, tel.Shipping)
	tel.Shipping.RecordQuote(ctx, "success")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, tel.InstrumentDB(ctx, db, "sqlite"))
	assert.Nil(t, tel.dbMetrics)

	assert.NoError(t, tel.Shutdown(ctx))
}

func TestNewProfiler_Validation(t *testing.T) {
	_, err := NewProfiler(ProfilerConfig{Enabled: true, ApplicationName: "kvikk"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewProfiler(ProfilerConfig{Enabled: true, ServerAddress: "http://localhost:4040"}, zap.NewNop())
	assert.Error(t, err)

	p, err := NewProfiler(ProfilerConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}
