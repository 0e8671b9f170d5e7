package telemetry

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// ProviderTracerName is the tracer used for collection provider runs
	ProviderTracerName = "github.com/stacklok/mosaic-wall/provider"

	// MosaicTracerName is the tracer used for mosaic cycles
	MosaicTracerName = "github.com/stacklok/mosaic-wall/mosaic"

	// HTTPTracerName is the tracer used for API requests
	HTTPTracerName = "github.com/stacklok/mosaic-wall/http"
)

// RecordError marks the span as failed with err. It is a no-op for a nil error.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
