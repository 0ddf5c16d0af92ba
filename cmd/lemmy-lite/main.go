// Command lemmy-lite is a read-only JSON proxy in front of any Lemmy instance.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lemmylite/lemmy-lite/engine/lemmy"
	"github.com/lemmylite/lemmy-lite/pkg/config"
	"github.com/lemmylite/lemmy-lite/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// policyFrom turns the upstream section into a transport policy.
func policyFrom(u config.UpstreamConfig) lemmy.Policy {
	return lemmy.Policy{
		Timeout:          u.Timeout,
		RPS:              u.RPS,
		Burst:            u.Burst,
		Attempts:         u.Retries,
		BreakerThreshold: u.BreakerThreshold,
		BreakerCooldown:  u.BreakerCooldown,
	}
}

// newServer wires the client stack. A nil base uses the default transport.
func newServer(cfg *config.Config, logger *slog.Logger, base http.RoundTripper) (*server, error) {
	version, err := lemmy.ParseVersion(cfg.Upstream.APIVersion)
	if err != nil {
		return nil, err
	}

	reg := metrics.New()
	policy := policyFrom(cfg.Upstream)
	policy.Base = base
	hc, breakers := lemmy.NewHTTPClient(policy, reg)

	client, err := lemmy.New(lemmy.Config{
		Version:    version,
		UserAgent:  cfg.Upstream.UserAgent,
		MaxPayload: cfg.Upstream.MaxPayload,

		CommentPageSize: cfg.Upstream.CommentPageSize,
		CommentMaxPages: cfg.Upstream.CommentMaxPages,
	}, hc)
	if err != nil {
		return nil, err
	}

	return &server{
		client:         client,
		breakers:       breakers,
		reg:            reg,
		log:            logger,
		now:            time.Now,
		corsOrigin:     cfg.CORSOrigin,
		requestTimeout: cfg.RequestTimeout,
	}, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := newServer(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "api", s.client.Version())
		errCh <- srv.ListenAndServe()
	}()

	var (
		grpcSrv *grpc.Server
		hs      *health.Server
	)
	if cfg.GRPC.Enabled() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr())
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer()
		hs = health.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, hs)
		hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		go func() {
			logger.Info("grpc health starting", "addr", lis.Addr().String())
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- err
			}
		}()
	}

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if grpcSrv != nil {
		hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		grpcSrv.GracefulStop()
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
