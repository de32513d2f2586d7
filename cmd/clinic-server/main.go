package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/bootstrap"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/config"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/lock"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/service/appointments"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/telemetry"
	grpcTransport "github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/transport/grpc"
	"github.com/Joallyfer/Projeto-Sistema-Agendamento-Consultas/internal/transport/httpapi"
)

const serviceName = "clinic-server"

var version = "dev"

func main() {
	log := bootstrap.NewLogger(os.Stdout, serviceName, "info")
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = bootstrap.NewLogger(os.Stdout, serviceName, cfg.LogLevel)
	slog.SetDefault(log)

	log.Info("starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("database_driver", cfg.DatabaseDriver),
		slog.String("log_level", cfg.LogLevel),
		slog.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("telemetry setup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", slog.Any("err", err))
		}
	}()

	repo, closeRepo, err := bootstrap.OpenRepository(ctx, cfg, log)
	if err != nil {
		log.Error("database open failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	checks := []httpapi.HealthCheck{{Name: cfg.DatabaseDriver, Check: repo.Ping}}

	var locker lock.Locker
	if cfg.RedisEnabled() {
		rdb, err := lock.NewRedisClient(ctx, lock.Options{
			Addr:     cfg.RedisAddr,
			Username: cfg.RedisUsername,
			Password: cfg.RedisPassword,
			URL:      cfg.RedisURL,
		})
		if err != nil {
			log.Error("redis connection failed", slog.Any("err", err))
			os.Exit(1)
		}
		defer closeRedis(log, rdb)
		redisLocker := lock.NewRedisLocker(rdb, cfg.RedisLockTTL)
		locker = redisLocker
		checks = append(checks, httpapi.HealthCheck{Name: "redis", Check: redisLocker.Ping, Optional: true})
		log.Info("distributed slot lock enabled", slog.Duration("ttl", cfg.RedisLockTTL))
	}

	svc := appointments.NewService(repo, locker)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.RouterConfig{
			Service:        svc,
			Log:            log,
			Checks:         checks,
			Version:        version,
			RequestTimeout: cfg.HTTPRequestTimeout,
			RateLimitRPS:   cfg.HTTPRateLimitRPS,
			RateLimitBurst: cfg.HTTPRateLimitBurst,
			TrustProxy:     cfg.HTTPTrustProxy,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpcTransport.NewServer(grpcTransport.ServerConfig{
		Service:        svc,
		Log:            log,
		RequestTimeout: cfg.GRPCRequestTimeout,
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		if err := grpcServer.Serve(lis); !grpcTransport.IsServerStopped(err) {
			errCh <- err
		}
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	grpcServer.SetServing(true)
	go grpcServer.WatchReadiness(ctx, 5*time.Second, repo.Ping)

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr))

	exitCode := 0
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		log.Error("server stopped with error", slog.Any("err", err))
		exitCode = 1
	}

	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
	if exitCode != 0 {
		stop()
		os.Exit(exitCode)
	}
}

func shutdown(log *slog.Logger, httpServer *http.Server, grpcServer *grpcTransport.Server, timeout time.Duration) {
	log.Info("shutting down http server", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed; closing", slog.Any("err", err))
		_ = httpServer.Close()
	}

	grpcServer.Shutdown(timeout)
}

func closeRedis(log *slog.Logger, rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.Warn("redis close failed", slog.Any("err", err))
	}
}
