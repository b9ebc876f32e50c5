package service

import (
	"time"

	"github.com/edutrack/edutrack/api/internal/audit"
	"github.com/edutrack/edutrack/common/logging"
)

type options struct {
	now      func() time.Time
	auditLog *audit.Logger
	logger   *logging.Logger
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now for timestamps and token lifetimes.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithAuditLogger records authentication outcomes on l.
func WithAuditLogger(l *audit.Logger) Option {
	return func(o *options) { o.auditLog = l }
}

func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
