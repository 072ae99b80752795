package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the level and destination of the desk logs.
type Config struct {
	Level zapcore.Level `envconfig:"LOG_LEVEL" default:"info"`
	// Sink is a file path; empty writes to stderr.
	Sink string `envconfig:"LOG_SINK"`
}

// NewLogger builds a console logger named after the component. It falls
// back to a no-op logger if the sink cannot be opened.
func NewLogger(cfg Config, name string) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	zcfg.Level = zap.NewAtomicLevelAt(cfg.Level)
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	zcfg.OutputPaths = []string{"stderr"}
	if cfg.Sink != "" {
		zcfg.OutputPaths = []string{cfg.Sink}
	}

	log, err := zcfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log.Named(name)
}
