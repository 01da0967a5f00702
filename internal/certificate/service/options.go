package service

import (
	"context"
	"log/slog"

	certmetrics "oilcert/internal/certificate/metrics"
	id "oilcert/pkg/domain"
	audit "oilcert/pkg/platform/audit"
)

// Authorizer gates every mutating operation. Implemented by the rbac service.
type Authorizer interface {
	Authorize(ctx context.Context, actor id.Identity, capability id.Capability) error
}

// AuditPublisher receives events after a mutation commits.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type serviceConfig struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *certmetrics.Metrics
}

type Option func(cfg *serviceConfig)

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serviceConfig) {
		cfg.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(cfg *serviceConfig) {
		cfg.auditPublisher = publisher
	}
}

func WithMetrics(m *certmetrics.Metrics) Option {
	return func(cfg *serviceConfig) {
		cfg.metrics = m
	}
}

func buildConfig(opts []Option) *serviceConfig {
	cfg := &serviceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
