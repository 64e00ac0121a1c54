// Package grpcserver runs the gRPC health endpoint that reports whether the
// action store is reachable.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported for the actions API.
const ServiceName = "ecoactions.v1.Actions"

// Probe reports store readiness; nil means serving.
type Probe func(ctx context.Context) error

// Server bundles a grpc.Server with a health server fed by a Probe.
type Server struct {
	grpc   *grpc.Server
	health *health.Server
	probe  Probe
	log    *zap.Logger
}

// New builds the gRPC server with the health check logger installed.
// Reflection is registered when dev is set.
func New(log *zap.Logger, probe Probe, dev bool) *Server {
	s := grpc.NewServer(grpc.UnaryInterceptor(LogChecks(log)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if dev {
		reflection.Register(s)
	}
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Server{grpc: s, health: hs, probe: probe, log: log}
}

// Check runs the probe once and publishes the result for ServiceName and "".
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if s.probe != nil {
		if err := s.probe(ctx); err != nil {
			s.log.Warn("store probe failed", zap.Error(err))
			st = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(ServiceName, st)
	s.health.SetServingStatus("", st)
	return st
}

// Watch re-runs the probe every interval until ctx is done.
func (s *Server) Watch(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		pctx, cancel := context.WithTimeout(ctx, interval)
		s.Check(pctx)
		cancel()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Serve accepts connections on lis until Stop.
func (s *Server) Serve(lis net.Listener) error { return s.grpc.Serve(lis) }

// Stop marks everything NOT_SERVING and drains, forcing after timeout.
func (s *Server) Stop(timeout time.Duration) {
	s.health.Shutdown()
	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		s.grpc.Stop()
	}
}

// LogChecks logs every health Check with the asked service, the answered
// status and the caller. NOT_SERVING answers are logged at Warn.
func LogChecks(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("dur", time.Since(start)),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			fields = append(fields, zap.String("peer", p.Addr.String()))
		}
		if in, ok := req.(*healthpb.HealthCheckRequest); ok {
			fields = append(fields, zap.String("service", in.GetService()))
		}
		if err != nil {
			log.Debug("health check", append(fields, zap.String("code", status.Code(err).String()))...)
			return resp, err
		}

		out, _ := resp.(*healthpb.HealthCheckResponse)
		st := out.GetStatus()
		fields = append(fields, zap.String("status", st.String()))
		if st == healthpb.HealthCheckResponse_NOT_SERVING {
			log.Warn("health check", fields...)
		} else {
			log.Debug("health check", fields...)
		}
		return resp, err
	}
}
