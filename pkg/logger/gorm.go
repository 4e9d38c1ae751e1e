package logger

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Gorm adapts the global zerolog logger to gorm's logger interface.
type Gorm struct {
	SlowThreshold time.Duration
	level         gormlogger.LogLevel
}

func NewGorm(slow time.Duration) *Gorm {
	level := gormlogger.Warn
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		level = gormlogger.Info
	}
	return &Gorm{SlowThreshold: slow, level: level}
}

func (g *Gorm) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *Gorm) Info(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		log.Info().Msgf(msg, args...)
	}
}

func (g *Gorm) Warn(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		log.Warn().Msgf(msg, args...)
	}
}

func (g *Gorm) Error(_ context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		log.Error().Msgf(msg, args...)
	}
}

func (g *Gorm) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && g.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Error().Err(err).Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query failed")
	case g.SlowThreshold > 0 && elapsed > g.SlowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("slow query")
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug().Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("gorm query")
	}
}
