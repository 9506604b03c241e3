package interceptors

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"google.golang.org/grpc"
)

func TestTelemetryUnaryRecordsRequest(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewRPCMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewRPCMetrics: %v", err)
	}
	interceptor := TelemetryUnary(m, map[string]bool{"/skip.Service/Method": true})

	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }
	if _, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/credauth.auth.v1.AuthService/SignIn"}, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
	if _, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/skip.Service/Method"}, handler); err != nil {
		t.Fatalf("interceptor (skipped): %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metr := range sm.Metrics {
			if metr.Name != "rpc.server.requests" {
				continue
			}
			sum, ok := metr.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", metr.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 1 {
		t.Errorf("recorded requests = %d, want 1 (skipped method must not count)", total)
	}
}

func TestTelemetryUnaryNilMetricsNoop(t *testing.T) {
	interceptor := TelemetryUnary(nil, nil)
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }
	if _, err := interceptor(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/x.Y/Z"}, handler); err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}
