package interceptors

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// RPCMetrics holds the instruments recorded by TelemetryUnary.
type RPCMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewRPCMetrics creates the request counter and duration histogram on meter.
func NewRPCMetrics(meter metric.Meter) (*RPCMetrics, error) {
	requests, err := meter.Int64Counter("rpc.server.requests",
		metric.WithDescription("Completed RPCs by method and status code"))
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram("rpc.server.duration",
		metric.WithDescription("RPC handling duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return &RPCMetrics{requests: requests, duration: duration}, nil
}

// TelemetryUnary returns a unary server interceptor that records a request
// count and duration for each RPC. If m is nil the interceptor no-ops.
// skipMethods is the set of full method names to not record (e.g. HealthCheck).
func TelemetryUnary(m *RPCMetrics, skipMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if m == nil || skipMethods[info.FullMethod] {
			return resp, err
		}
		attrs := metric.WithAttributes(
			attribute.String("rpc.method", info.FullMethod),
			attribute.String("rpc.status_code", status.Code(err).String()),
		)
		m.requests.Add(ctx, 1, attrs)
		m.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
		return resp, err
	}
}
