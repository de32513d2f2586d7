package grpc

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported next to the overall ("")
// status.
const ServiceName = "clinic.Clinic"

type ServerConfig struct {
	// Service, when set, is served as ServiceName over the JSON codec.
	Service        clinicService
	Log            *slog.Logger
	RequestTimeout time.Duration
}

type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *slog.Logger
}

func NewServer(cfg ServerConfig) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(slog.String("component", "grpc"))

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(cfg.RequestTimeout),
			loggingInterceptor(log),
		),
	)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	if cfg.Service != nil {
		srv.RegisterService(&clinicServiceDesc, NewClinicServer(cfg.Service, cfg.Log))
	}
	reflection.Register(srv)

	return &Server{srv: srv, health: hs, log: log}
}

func (s *Server) Serve(lis net.Listener) error {
	return s.srv.Serve(lis)
}

func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// WatchReadiness flips the health status with check until ctx is done.
func (s *Server) WatchReadiness(ctx context.Context, interval time.Duration, check func(ctx context.Context) error) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		checkCtx, cancel := context.WithTimeout(ctx, time.Second)
		err := check(checkCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}

		if (err == nil) != serving {
			serving = err == nil
			if serving {
				s.log.Info("dependencies recovered")
			} else {
				s.log.Warn("dependency check failed", slog.Any("err", err))
			}
			s.SetServing(serving)
		}
	}
}

// Shutdown reports NOT_SERVING, then stops gracefully, forcing the stop when
// timeout elapses.
func (s *Server) Shutdown(timeout time.Duration) {
	s.health.Shutdown()
	s.log.Info("shutting down grpc server", slog.Duration("timeout", timeout))

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info("grpc server stopped")
	case <-timer.C:
		s.log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.srv.Stop()
	}
}

func IsServerStopped(err error) bool {
	return err == nil || errors.Is(err, grpc.ErrServerStopped)
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func loggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc request",
			slog.String("rpc", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return resp, err
	}
}
