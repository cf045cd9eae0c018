// Package core implements the quality-control document chain, sampling
// pipeline, and master-data operations on top of the persistence port.
package core

import (
	"context"
	"time"

	"github.com/indofiz/qcms-data-structure-sub000/internal/blob"
	"github.com/indofiz/qcms-data-structure-sub000/internal/infra/persistence/memory"
	"github.com/indofiz/qcms-data-structure-sub000/pkg/domain"
)

// Service exposes the transactional operations of the quality core. All
// commands run inside a store transaction; on any error nothing is applied.
type Service struct {
	store     domain.PersistentStore
	engine    *domain.TransitionEngine
	validator *ReferentialValidator
	identity  domain.Identity
	blobs     blob.Store
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	clock     Clock
}

// Option customizes service construction.
type Option func(*Service)

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics overrides the default no-op metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer overrides the default no-op tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithIdentity sets the identity port resolving the acting user.
func WithIdentity(id domain.Identity) Option {
	return func(s *Service) {
		if id != nil {
			s.identity = id
		}
	}
}

// WithBlobStore sets the attachment store used for COA photos.
func WithBlobStore(b blob.Store) Option {
	return func(s *Service) {
		if b != nil {
			s.blobs = b
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		engine:    domain.NewTransitionEngine(),
		validator: NewReferentialValidator(),
		identity:  domain.StaticIdentity{User: domain.User{ID: "system", Name: "system", Role: domain.RoleAdmin}},
		logger:    noopLogger{},
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		clock:     systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// default rules engine.
func NewInMemoryService(opts ...Option) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine()), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

// Transitions returns the status transition engine used by the service.
func (s *Service) Transitions() *domain.TransitionEngine { return s.engine }

// run executes fn in a store transaction, instrumented with tracing,
// metrics, and logging under the given operation name.
func (s *Service) run(ctx context.Context, operation string, fn func(domain.Transaction) error) (domain.Result, error) {
	ctx, span := s.tracer.Start(ctx, operation)
	start := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(start)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	span.End(err)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("operation committed", "operation", operation, "violations", len(res.Violations))
	}
	return res, err
}

// actor resolves the current user from the identity port.
func (s *Service) actor(ctx context.Context) (domain.User, error) {
	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		return domain.User{}, domain.NewError(domain.ErrForbidden, "", "", "resolve user: %v", err)
	}
	return user, nil
}
