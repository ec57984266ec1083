// telemetry.go — structured logging and tracing sink for the Connection.
//
// Grounded on the teacher's server.logLifecycle (cmd/dev-console/main_connection.go):
// one event name plus a bag of fields per lifecycle transition. The teacher
// hand-rolls this as a map written to a JSONL file; this module keeps the
// event+field shape but routes it through zerolog, and adds an OpenTelemetry
// span/counter pair around every RPC the Connection sends (spec §4.3 calls
// out "a tracing/logging sink" on the Connection explicitly).
package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Sink bundles the logger and tracer a Connection needs. One Sink per
// Connection, carrying a unique correlation id distinguishing concurrent
// embedded drivers in the same process's logs.
type Sink struct {
	log              zerolog.Logger
	tracer           trace.Tracer
	requestsTotal    metric.Int64Counter
	requestsFail     metric.Int64Counter
	requestsInFlight metric.Int64UpDownCounter
	correlationID    string
}

// New builds a Sink writing to w (os.Stderr in production, a buffer in
// tests). The correlation id is generated once per Connection so its log
// lines and spans can be grepped out of a process running several drivers.
func New(w io.Writer) *Sink {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().
		Timestamp().
		Str("component", "drivebridge").
		Logger()

	meter := otel.Meter("github.com/corvid-labs/drivebridge")
	requestsTotal, _ := meter.Int64Counter("drivebridge.requests.total")
	requestsFail, _ := meter.Int64Counter("drivebridge.requests.failed")
	requestsInFlight, _ := meter.Int64UpDownCounter("drivebridge.requests.in_flight")

	return &Sink{
		log:              logger,
		tracer:           otel.Tracer("github.com/corvid-labs/drivebridge"),
		requestsTotal:    requestsTotal,
		requestsFail:     requestsFail,
		requestsInFlight: requestsInFlight,
		correlationID:    uuid.NewString(),
	}
}

// CorrelationID returns the Sink's per-Connection trace-correlation id.
func (s *Sink) CorrelationID() string { return s.correlationID }

// Lifecycle logs a structured event, mirroring the teacher's logLifecycle
// "event name + field bag" shape.
func (s *Sink) Lifecycle(event string, fields map[string]any) {
	ev := s.log.Info().Str("event", event).Str("correlation_id", s.correlationID)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event)
}

// Warn logs a recoverable condition: an unknown guid in a dispatched
// message, a dropped response, an unknown __create__ type. Spec §4.3/§4.4
// call these out as "logged and discarded", never promoted to an error.
func (s *Sink) Warn(event, message string, fields map[string]any) {
	ev := s.log.Warn().Str("event", event).Str("correlation_id", s.correlationID)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(message)
}

// Error logs a terminal condition (transport failure, launch failure).
func (s *Sink) Error(event string, err error, fields map[string]any) {
	ev := s.log.Error().Str("event", event).Str("correlation_id", s.correlationID).Err(err)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(event)
}

// RequestSpan opens a span around one outgoing RPC request, tagging it with
// the request id, target guid, and method so traces line up with the wire
// protocol's own correlation scheme.
func (s *Sink) RequestSpan(ctx context.Context, id uint32, guid, method string) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "drivebridge.rpc.send",
		trace.WithAttributes(
			attribute.Int64("drivebridge.request_id", int64(id)),
			attribute.String("drivebridge.guid", guid),
			attribute.String("drivebridge.method", method),
		),
	)
	if s.requestsTotal != nil {
		s.requestsTotal.Add(ctx, 1)
	}
	if s.requestsInFlight != nil {
		s.requestsInFlight.Add(ctx, 1)
	}
	return ctx, span
}

// EndRequestSpan closes a span started by RequestSpan, recording failure in
// both the span status and the failure counter, and drops the request from
// the in-flight gauge RequestSpan incremented.
func (s *Sink) EndRequestSpan(ctx context.Context, span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		if s.requestsFail != nil {
			s.requestsFail.Add(ctx, 1)
		}
	}
	if s.requestsInFlight != nil {
		s.requestsInFlight.Add(ctx, -1)
	}
	span.End()
}
