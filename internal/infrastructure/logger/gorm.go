package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// defaultSlowThreshold flags queries slower than this as slow SQL
const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger adapts zap to GORM's logger interface. Query traces carry the
// request and tenant ids when the context has them, so slow or failing SQL
// can be tied back to the sync operation that issued it.
type GormLogger struct {
	zl             *zap.Logger
	level          gormlogger.LogLevel
	slowThreshold  time.Duration
	ignoreNotFound bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the slow query threshold; zero disables slow logging
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slowThreshold = threshold }
}

// WithIgnoreRecordNotFoundError controls whether ErrRecordNotFound traces are
// dropped. On by default; absent rows are an expected outcome for lookups.
func WithIgnoreRecordNotFoundError(ignore bool) GormLoggerOption {
	return func(l *GormLogger) { l.ignoreNotFound = ignore }
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zl *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		zl:             zl.Named("gorm"),
		level:          level,
		slowThreshold:  defaultSlowThreshold,
		ignoreNotFound: true,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.zl.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.zl.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.zl.Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface; one entry per executed statement
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := l.traceFields(ctx, elapsed, rows, sql)

	switch {
	case err != nil && l.level >= gormlogger.Error:
		if l.ignoreNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.zl.Error("sql error", append(fields, zap.Error(err))...)

	case l.slowThreshold > 0 && elapsed >= l.slowThreshold && l.level >= gormlogger.Warn:
		l.zl.Warn("slow sql", append(fields, zap.Duration("threshold", l.slowThreshold))...)

	case l.level >= gormlogger.Info:
		l.zl.Debug("sql", fields...)
	}
}

func (l *GormLogger) traceFields(ctx context.Context, elapsed time.Duration, rows int64, sql string) []zap.Field {
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetTenantID(ctx); id != "" {
		fields = append(fields, zap.String("tenant_id", id))
	}
	return fields
}

// MapGormLogLevel maps the application log level onto GORM's levels
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
