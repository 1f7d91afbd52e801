package repository

import (
	"time"

	"go.uber.org/zap"

	"twig/internal/config"
)

type Option func(*Repository)

// WithClock replaces time.Now as the source of commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSettings skips config.Load.
func WithSettings(settings *config.Settings) Option {
	return func(r *Repository) {
		r.Settings = settings
	}
}
