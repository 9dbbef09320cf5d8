// Package inmemory provides an in-memory implementation of the ActivityService interface
package inmemory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mergington/activity-registry/internal/otel"
	"github.com/mergington/activity-registry/internal/service"
	"github.com/mergington/activity-registry/internal/telemetry"
)

const (
	// ServiceTracerName is the name used for the in-memory registry tracer
	ServiceTracerName = "github.com/mergington/activity-registry/service/inmemory"

	operationSignup     = "signup"
	operationUnregister = "unregister"
)

// actSvc implements the ActivityService interface
type actSvc struct {
	mu         sync.RWMutex // Protects activities
	activities map[string]*service.Activity

	enforceCapacity bool
	tracer          trace.Tracer
	metrics         *telemetry.RegistryMetrics
}

var _ service.ActivityService = (*actSvc)(nil)

type options struct {
	seed            service.Catalog
	enforceCapacity bool
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
}

// Option is a functional option for configuring the in-memory registry
type Option func(*options)

// WithActivities seeds the registry. The catalog is copied.
func WithActivities(catalog service.Catalog) Option {
	return func(o *options) {
		o.seed = catalog
	}
}

// WithCapacityEnforcement toggles rejection of signups for full activities.
// Enforcement is on unless disabled here.
func WithCapacityEnforcement(enforce bool) Option {
	return func(o *options) {
		o.enforceCapacity = enforce
	}
}

// WithTracerProvider sets the tracer provider used for service spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider used for registry metrics
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) {
		o.meterProvider = mp
	}
}

// New creates an in-memory activity registry. It fails if the seed catalog
// is invalid, e.g. when a roster lists the same email twice.
func New(ctx context.Context, opts ...Option) (service.ActivityService, error) {
	o := &options{enforceCapacity: true}
	for _, opt := range opts {
		opt(o)
	}

	if err := service.ValidateCatalog(o.seed, o.enforceCapacity); err != nil {
		return nil, err
	}

	s := &actSvc{
		activities:      make(map[string]*service.Activity, len(o.seed)),
		enforceCapacity: o.enforceCapacity,
	}
	for name, activity := range o.seed {
		clone := activity.Clone()
		s.activities[name] = &clone
	}

	if o.tracerProvider != nil {
		s.tracer = o.tracerProvider.Tracer(ServiceTracerName)
	}

	metrics, err := telemetry.NewRegistryMetrics(o.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}
	s.metrics = metrics

	s.metrics.RecordActivitiesTotal(ctx, int64(len(s.activities)))
	for name, activity := range s.activities {
		s.metrics.RecordParticipants(ctx, name, int64(len(activity.Participants)))
	}

	slog.Info("Activity registry initialized",
		"activity_count", len(s.activities),
		"enforce_capacity", s.enforceCapacity)

	return s, nil
}

// CheckReadiness implements ActivityService.CheckReadiness
func (s *actSvc) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activities == nil {
		return fmt.Errorf("activity registry not initialized")
	}
	return nil
}

// ListActivities implements ActivityService.ListActivities
func (s *actSvc) ListActivities(ctx context.Context) (service.Catalog, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "actSvc.ListActivities")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog := make(service.Catalog, len(s.activities))
	for name, activity := range s.activities {
		catalog[name] = activity.Clone()
	}

	span.SetAttributes(otel.AttrActivityCount.Int(len(catalog)))
	return catalog, nil
}

// GetActivity implements ActivityService.GetActivity
func (s *actSvc) GetActivity(ctx context.Context, name string) (*service.Activity, error) {
	_, span := otel.StartSpan(ctx, s.tracer, "actSvc.GetActivity",
		trace.WithAttributes(otel.AttrActivityName.String(name)),
	)
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	activity, ok := s.activities[name]
	if !ok {
		err := fmt.Errorf("%w: %s", service.ErrActivityNotFound, name)
		otel.RecordError(span, err)
		return nil, err
	}

	clone := activity.Clone()
	return &clone, nil
}

// Signup implements ActivityService.Signup
func (s *actSvc) Signup(ctx context.Context, activityName, email string) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "actSvc.Signup",
		trace.WithAttributes(
			otel.AttrActivityName.String(activityName),
			otel.AttrCapacityEnforced.Bool(s.enforceCapacity),
		),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[activityName]
	if !ok {
		return s.fail(ctx, span, operationSignup, activityName, telemetry.OutcomeNotFound,
			fmt.Errorf("%w: %s", service.ErrActivityNotFound, activityName))
	}

	if activity.HasParticipant(email) {
		return s.fail(ctx, span, operationSignup, activityName, telemetry.OutcomeConflict,
			fmt.Errorf("%w: %s", service.ErrAlreadyRegistered, activityName))
	}

	if s.enforceCapacity && activity.IsFull() {
		return s.fail(ctx, span, operationSignup, activityName, telemetry.OutcomeFull,
			fmt.Errorf("%w: %s has reached its limit of %d participants",
				service.ErrActivityFull, activityName, activity.MaxParticipants))
	}

	activity.Participants = append(activity.Participants, email)
	s.recordChange(ctx, span, operationSignup, activityName, len(activity.Participants), activity.MaxParticipants)

	slog.Debug("Participant signed up",
		"activity", activityName,
		"participant_count", len(activity.Participants))
	return nil
}

// Unregister implements ActivityService.Unregister
func (s *actSvc) Unregister(ctx context.Context, activityName, email string) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "actSvc.Unregister",
		trace.WithAttributes(otel.AttrActivityName.String(activityName)),
	)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	activity, ok := s.activities[activityName]
	if !ok {
		return s.fail(ctx, span, operationUnregister, activityName, telemetry.OutcomeNotFound,
			fmt.Errorf("%w: %s", service.ErrActivityNotFound, activityName))
	}

	idx := slices.Index(activity.Participants, email)
	if idx < 0 {
		return s.fail(ctx, span, operationUnregister, activityName, telemetry.OutcomeConflict,
			fmt.Errorf("%w: %s", service.ErrNotRegistered, activityName))
	}

	activity.Participants = slices.Delete(activity.Participants, idx, idx+1)
	s.recordChange(ctx, span, operationUnregister, activityName, len(activity.Participants), activity.MaxParticipants)

	slog.Debug("Participant unregistered",
		"activity", activityName,
		"participant_count", len(activity.Participants))
	return nil
}

// recordChange updates span and metrics after a successful roster change.
// Caller must hold s.mu.
func (s *actSvc) recordChange(
	ctx context.Context,
	span trace.Span,
	operation, activityName string,
	participants, capacity int,
) {
	span.SetAttributes(
		otel.AttrParticipantCount.Int(participants),
		otel.AttrCapacity.Int(capacity),
	)
	s.metrics.RecordRegistrationChange(ctx, operation, activityName, telemetry.OutcomeSuccess)
	s.metrics.RecordParticipants(ctx, activityName, int64(participants))
}

func (s *actSvc) fail(
	ctx context.Context,
	span trace.Span,
	operation, activityName, outcome string,
	err error,
) error {
	otel.RecordError(span, err)
	s.metrics.RecordRegistrationChange(ctx, operation, activityName, outcome)
	return err
}
