package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig configures the program logger.
type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	Encoding    string `yaml:"encoding" validate:"oneof=console json"`
}

// Build returns a logger writing to stderr. Development loggers panic on
// DPanic, which is how lifecycle defects surface during testing.
func (c LoggingConfig) Build(opts ...zap.Option) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("logging level: %w", err)
	}

	zc := zap.NewProductionConfig()
	ec := zap.NewProductionEncoderConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
		ec = zap.NewDevelopmentEncoderConfig()
	}
	if c.Encoding == "console" {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		ec.CallerKey = zapcore.OmitKey
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = c.Encoding
	zc.EncoderConfig = ec
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Named("vellum"), nil
}
