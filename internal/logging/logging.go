// Package logging builds the structured logger shared by every package
// in this daemon. A single *zap.SugaredLogger is constructed at startup
// and threaded through explicitly; nothing reaches for a package-level
// global logger.
package logging

import (
	"log"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a development-style zap logger tagged with the daemon name,
// redirects the standard "log" package into it, and returns the sugared
// form used throughout this repo. debug selects Debug level; otherwise
// the logger is pinned to Info level.
func New(name string, debug bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = shortTimeEncoder
	cfg.InitialFields = map[string]interface{}{"daemon": name}
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Panicf("can't build logger: %s", err)
	}

	_ = zap.RedirectStdLog(logger)

	return logger.Sugar()
}

func shortTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05.000"))
}
