// Package service holds helpers shared by the business services under it.
package service

import (
	"context"

	"storefront/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "storefront/service"

// Guard is applied to the result of every mutating operation. Classified
// errors pass through unchanged; anything else is logged with detail and
// replaced by an opaque internal error.
func Guard(logger *zap.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.IsKnown(err) {
		return err
	}
	logger.Error("unexpected failure", zap.String("op", op), zap.Error(err))
	return domain.Internal()
}

// StartSpan opens a span named after the operation.
func StartSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, op)
}

// EndSpan records err on the span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.KindOf(err).String())
	}
	span.End()
}
