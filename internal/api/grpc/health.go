package grpc

import (
	"context"
	"time"

	"clan-rental-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported alongside the overall ("")
// status.
const ServiceName = "clan_rental.Backend"

// Pinger is satisfied by the postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1.Health and reflection. Its status
// follows database connectivity.
type HealthServer struct {
	server *grpc.Server
	health *health.Server
	db     Pinger
}

func NewHealthServer(db Pinger) *HealthServer {
	h := health.NewServer()
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(recoveryInterceptor, loggingInterceptor))
	healthpb.RegisterHealthServer(s, h)
	reflection.Register(s)

	return &HealthServer{server: s, health: h, db: db}
}

// Server returns the underlying grpc server for Serve/GracefulStop.
func (hs *HealthServer) Server() *grpc.Server {
	return hs.server
}

func (hs *HealthServer) setStatus(st healthpb.HealthCheckResponse_ServingStatus) {
	hs.health.SetServingStatus("", st)
	hs.health.SetServingStatus(ServiceName, st)
}

// Check pings the database once and records the result.
func (hs *HealthServer) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := hs.db.Ping(ctx); err != nil {
		logger.Warn("Database health check failed", "error", err)
		hs.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
		return
	}
	hs.setStatus(healthpb.HealthCheckResponse_SERVING)
}

// Watch re-checks the database every interval until ctx is done, then marks
// the server as shutting down.
func (hs *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	hs.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.health.Shutdown()
			return
		case <-ticker.C:
			hs.Check(ctx)
		}
	}
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	logger.Debug("gRPC call", "method", info.FullMethod, "duration", time.Since(start), "code", status.Code(err).String())
	return resp, err
}

func recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("gRPC handler panic", "method", info.FullMethod, "panic", p)
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
