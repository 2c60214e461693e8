package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON in production, console otherwise.
// LOG_LEVEL overrides the default level when it parses.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if c.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zapcore.ParseLevel(c.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}
