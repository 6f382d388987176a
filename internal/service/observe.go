package service

import (
	"context"
	"errors"
	"time"

	"github.com/aryan0dhankhar/formationhub/internal/domain"
	"github.com/aryan0dhankhar/formationhub/internal/observability/metrics"
	"github.com/aryan0dhankhar/formationhub/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func utcNow() time.Time { return time.Now().UTC() }

// operation tracks one rule-checked write for tracing and metrics
type operation struct {
	name  string
	start time.Time
	span  trace.Span
}

func startOperation(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *operation) {
	ctx, span := tracing.Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &operation{name: name, start: time.Now(), span: span}
}

// end records the outcome; result is "ok" or the rejecting error code
func (o *operation) end(err error) {
	result := "ok"
	if err != nil {
		result = "error"
		if e, ok := domain.AsError(err); ok {
			result = e.Code
		}
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, result)
	}
	o.span.SetAttributes(attribute.String("result", result))
	metrics.ObserveRuleDecision(o.name, result, time.Since(o.start))
	o.span.End()
}

// notFound maps the repository sentinel to the entity-specific error
func notFound(err error, target *domain.Error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return target
	}
	return err
}

// exists turns a lookup into a presence flag, passing through real failures
func exists[T any](_ T, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}
