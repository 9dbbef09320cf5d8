package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// RegistryMetricsMeterName is the name used for the activity registry meter
	RegistryMetricsMeterName = "github.com/mergington/activity-registry/registry"
)

// Outcome labels recorded on registration changes
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeConflict = "conflict"
	OutcomeFull     = "full"
)

// RegistryMetrics holds the OpenTelemetry instruments for activity registry metrics
type RegistryMetrics struct {
	registrationChanges metric.Int64Counter
	participants        metric.Int64Gauge
	activitiesTotal     metric.Int64Gauge
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	registrationChanges, err := meter.Int64Counter(
		"activity_registry_registration_changes_total",
		metric.WithDescription("Number of signup and unregister requests by outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	participants, err := meter.Int64Gauge(
		"activity_registry_participants",
		metric.WithDescription("Number of participants registered for each activity"),
		metric.WithUnit("{participant}"),
	)
	if err != nil {
		return nil, err
	}

	activitiesTotal, err := meter.Int64Gauge(
		"activity_registry_activities_total",
		metric.WithDescription("Number of activities in the registry"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		registrationChanges: registrationChanges,
		participants:        participants,
		activitiesTotal:     activitiesTotal,
	}, nil
}

// RecordRegistrationChange counts a signup or unregister attempt.
// activityName is dropped for not_found outcomes so arbitrary client input
// cannot inflate label cardinality.
func (m *RegistryMetrics) RecordRegistrationChange(ctx context.Context, operation, activityName, outcome string) {
	if m == nil || m.registrationChanges == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	}
	if outcome != OutcomeNotFound {
		attrs = append(attrs, attribute.String("activity", activityName))
	}

	m.registrationChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordParticipants records the current roster size of an activity
func (m *RegistryMetrics) RecordParticipants(ctx context.Context, activityName string, count int64) {
	if m == nil || m.participants == nil {
		return
	}

	m.participants.Record(ctx, count, metric.WithAttributes(attribute.String("activity", activityName)))
}

// RecordActivitiesTotal records the number of activities in the registry
func (m *RegistryMetrics) RecordActivitiesTotal(ctx context.Context, count int64) {
	if m == nil || m.activitiesTotal == nil {
		return
	}

	m.activitiesTotal.Record(ctx, count)
}
