// Package otel provides OpenTelemetry instrumentation utilities for the activity registry.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Attribute keys shared by every span the registry emits.
// Participant emails are never recorded on spans.
const (
	AttrActivityName     = attribute.Key("activity.name")
	AttrActivityCount    = attribute.Key("activity.count")
	AttrParticipantCount = attribute.Key("activity.participant_count")
	AttrCapacity         = attribute.Key("activity.capacity")
	AttrCapacityEnforced = attribute.Key("activity.capacity_enforced")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
// The span already in ctx is never returned, so ending the result cannot end the caller's span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, noop.Span{}
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors. The status description stays
// generic; the error itself is attached as a span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
