package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/kvikk/backend/internal/infrastructure/config"
)

// MeterName scopes the application's instruments.
const MeterName = "kvikk-shopify"

// Telemetry bundles every provider started for one process.
type Telemetry struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Shipping *ShippingMetrics
	// Logger is the base logger, bridged to the OTEL log pipeline when enabled.
	Logger *zap.Logger

	cfg       config.TelemetryConfig
	dbMetrics *DBMetrics
}

// Setup starts tracing, metrics, log export and profiling as configured.
// With telemetry disabled every provider is a no-op and Shipping records
// into the global no-op meter.
func Setup(ctx context.Context, cfg config.TelemetryConfig, version string, logLevel zapcore.Level, logger *zap.Logger) (*Telemetry, error) {
	t := &Telemetry{cfg: cfg, Logger: logger}

	var err error
	t.Tracer, err = NewTracerProvider(ctx, Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, err
	}

	t.Meter, err = NewMeterProvider(ctx, MetricsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}

	t.Logs, err = NewLoggerProvider(ctx, LogsConfig{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ServiceName:       cfg.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Insecure,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	t.Logger = BridgeLogger(logger, t.Logs, cfg.ServiceName, logLevel)

	t.Profiler, err = NewProfiler(ProfilerConfig{
		Enabled:         cfg.ProfilingEnabled,
		ServerAddress:   cfg.PyroscopeAddress,
		ApplicationName: cfg.ServiceName,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if t.Profiler.IsEnabled() {
		if err := t.Tracer.EnableSpanProfiles(); err != nil {
			return nil, errors.Join(err, t.Shutdown(ctx))
		}
	}

	t.Shipping, err = NewShippingMetrics(t.Meter.Meter(MeterName))
	if err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create shipping metrics: %w", err), t.Shutdown(ctx))
	}

	return t, nil
}

// InstrumentDB attaches query tracing and query/pool metrics to db.
func (t *Telemetry) InstrumentDB(ctx context.Context, db *gorm.DB, dbSystem string) error {
	tracing := NewDBTracingPlugin(DBTracingConfig{
		Enabled:         t.cfg.Enabled && t.cfg.DBTraceEnabled,
		LogFullSQL:      t.cfg.DBLogFullSQL,
		SlowQueryThresh: t.cfg.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, t.Logger)
	if err := tracing.Register(db); err != nil {
		return fmt.Errorf("failed to register db tracing: %w", err)
	}

	if !t.Meter.IsEnabled() {
		return nil
	}

	metrics, err := NewDBMetrics(t.Meter.Meter(MeterName), DBMetricsConfig{
		SlowQueryThreshold: t.cfg.DBSlowQueryThresh,
	}, t.Logger)
	if err != nil {
		return err
	}
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return fmt.Errorf("failed to register db metrics: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	metrics.StartPoolStatsCollection(ctx, sqlDB)
	t.dbMetrics = metrics
	return nil
}

// Shutdown stops the profiler and flushes every provider. Errors are joined.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.dbMetrics != nil {
		t.dbMetrics.Stop()
	}
	if t.Profiler != nil {
		errs = append(errs, t.Profiler.Stop())
	}
	if t.Logs != nil {
		errs = append(errs, t.Logs.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
