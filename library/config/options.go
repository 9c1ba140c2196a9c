package config

import (
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(cfg *Config)

// WithLogLevel applies only when LOG_LEVEL is not set.
func WithLogLevel(level zapcore.Level) Option {
	return func(cfg *Config) {
		if _, ok := os.LookupEnv("LOG_LEVEL"); !ok {
			cfg.Log.LogLevel = level
		}
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(cfg *Config) {
		if _, ok := os.LookupEnv("HTTP_WRITE"); !ok {
			cfg.Server.WriteTimeout = d
		}
	}
}

func WithMaxWorkers(n int64) Option {
	return func(cfg *Config) {
		if _, ok := os.LookupEnv("HTTP_MAX_WORKERS"); !ok && n > 0 {
			cfg.Server.MaxWorkers = n
		}
	}
}
