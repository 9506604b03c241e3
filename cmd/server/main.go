package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	accountrepo "credential-auth-service/internal/account/repository"
	"credential-auth-service/internal/audit"
	auditrepo "credential-auth-service/internal/audit/repository"
	authhandler "credential-auth-service/internal/auth/handler"
	authservice "credential-auth-service/internal/auth/service"
	"credential-auth-service/internal/config"
	"credential-auth-service/internal/db"
	"credential-auth-service/internal/denylist"
	"credential-auth-service/internal/lockout"
	rolerepo "credential-auth-service/internal/role/repository"
	"credential-auth-service/internal/security"
	"credential-auth-service/internal/server"
	"credential-auth-service/internal/server/interceptors"
	sessionrepo "credential-auth-service/internal/session/repository"
	"credential-auth-service/internal/telemetry/otel"
)

const serviceName = "credential-auth-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	signingKey, err := cfg.SigningKey()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	encryptionKey, err := cfg.EncryptionKey()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	accounts := accountrepo.NewPostgresRepository(pool)
	roles := rolerepo.NewPostgresRepository(pool)
	sessions := sessionrepo.NewPostgresRepository(pool)
	auditLogs := auditrepo.NewPostgresRepository(pool)
	deny := denylist.NewStore(redisClient)

	codec := security.NewTokenCodec(signingKey, cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)
	encryptor, err := security.NewEncryptor(encryptionKey)
	if err != nil {
		log.Fatalf("encryptor: %v", err)
	}
	policy := lockout.NewPolicy(accounts, cfg.MaxFailedAttempts, cfg.LockoutDuration())
	auditLogger := audit.NewLogger(auditLogs, interceptors.ClientIP)

	authSvc := authservice.NewAuthService(accounts, roles, sessions, policy, hasher, codec, encryptor, auditLogger)

	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	metrics, err := interceptors.NewRPCMetrics(providers.MeterProvider.Meter(serviceName))
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	s, healthSrv := server.New(server.Deps{
		Codec:         codec,
		Denylist:      deny,
		Accounts:      accounts,
		AuditRepo:     auditLogs,
		Metrics:       metrics,
		PublicMethods: authhandler.PublicMethods,
	})
	authhandler.RegisterAuthServer(s, authhandler.NewAuthServer(authSvc, codec, deny))

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer lis.Close()

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	go func() {
		log.Printf("gRPC server listening on %s", cfg.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down gRPC server...")
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("gRPC server stopped")
}
