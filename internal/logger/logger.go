package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level         string
	Encoding      string
	IsDevelopment bool
}

// New builds the application logger. Unknown levels fall back to info.
func New(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	zapCfg.EncoderConfig.TimeKey = "time"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}
