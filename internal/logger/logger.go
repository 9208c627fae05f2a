// Package logger builds the process-wide zap logger.
package logger

import (
	"go.uber.org/zap"
)

// New creates a logger for the given environment. Development gets the
// human-readable console encoder; everything else logs structured JSON.
func New(env, service string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "development" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return log.With(zap.String("service", service)), nil
}
