package datastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm's logging through slog.
type GormLogger struct {
	log   *slog.Logger
	level gormlogger.LogLevel
}

func NewGormLogger(log *slog.Logger) *GormLogger {
	return &GormLogger{
		log:   log,
		level: gormlogger.Warn,
	}
}

func (l *GormLogger) LogMode(lvl gormlogger.LogLevel) gormlogger.Interface {
	newlogger := *l
	newlogger.level = lvl
	return &newlogger
}

func (l *GormLogger) Info(ctx context.Context, str string, rest ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.InfoContext(ctx, fmt.Sprintf(str, rest...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, str string, rest ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.WarnContext(ctx, fmt.Sprintf(str, rest...))
	}
}

func (l *GormLogger) Error(ctx context.Context, str string, rest ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.ErrorContext(ctx, fmt.Sprintf(str, rest...))
	}
}

// Trace logs failed queries as errors and every other query at debug.
// Record-not-found is an expected lookup outcome and is not an error.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	sql, rows := fc()
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.log.ErrorContext(ctx, "query failed", "took", time.Since(begin), "sql", sql, "rows", rows, "err", err)
		return
	}
	l.log.DebugContext(ctx, "query", "took", time.Since(begin), "sql", sql, "rows", rows)
}
