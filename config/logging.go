package config

import (
	"fmt"

	"go.uber.org/zap"
)

// setLogger picks a zap configuration for the given environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		return cfg.Build()
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		return cfg.Build()
	case "production":
		return zap.NewProduction()
	default:
		return nil, fmt.Errorf("unknown environment %q", env)
	}
}
