// Package server assembles the gRPC server: the interceptor chain (telemetry,
// revocation gate, audit) and the standard health service. Request/response
// handlers for the auth API are registered by the caller against the returned
// server.
package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	auditrepo "credential-auth-service/internal/audit/repository"
	"credential-auth-service/internal/security"
	"credential-auth-service/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Deps holds the collaborators wired into the gRPC server.
type Deps struct {
	Codec    *security.TokenCodec
	Denylist interceptors.DenylistChecker
	Accounts interceptors.AccountResolver
	// AuditRepo is the audit log repository for the audit interceptor.
	// If nil, no RPCs are audited.
	AuditRepo auditrepo.Repository
	// Metrics holds the RPC instruments. If nil, no metrics are recorded.
	Metrics *interceptors.RPCMetrics
	// PublicMethods is the set of full method names admitted without a token.
	PublicMethods map[string]bool
}

// New builds a grpc.Server with the interceptor chain and registers the
// standard health service. The returned health server starts in NOT_SERVING;
// the caller flips it once its handlers are registered and a listener is up.
func New(deps Deps) (*grpc.Server, *health.Server) {
	public := map[string]bool{healthCheckMethod: true}
	for m := range deps.PublicMethods {
		public[m] = true
	}
	skip := map[string]bool{healthCheckMethod: true}

	chain := []grpc.UnaryServerInterceptor{
		interceptors.TelemetryUnary(deps.Metrics, skip),
		interceptors.RevocationGateUnary(deps.Codec, deps.Denylist, deps.Accounts, public),
	}
	if deps.AuditRepo != nil {
		chain = append(chain, interceptors.AuditUnary(deps.AuditRepo, skip))
	}

	s := grpc.NewServer(grpc.ChainUnaryInterceptor(chain...))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(s, healthSrv)

	return s, healthSrv
}
