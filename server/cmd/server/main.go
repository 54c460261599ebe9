package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"github.com/mdrdcalc/mdrdcalc/server/internal/api"
	"github.com/mdrdcalc/mdrdcalc/server/internal/config"
	"github.com/mdrdcalc/mdrdcalc/server/internal/metrics"
	"github.com/mdrdcalc/mdrdcalc/server/internal/probe"
	"github.com/mdrdcalc/mdrdcalc/server/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file; empty uses defaults and MDRD_* environment variables")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("mdrdcalc-server starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Server.SlogLevel())

	slog.Info("config loaded",
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"policy", cfg.Validation.Policy,
		"bounds", cfg.Validation.Bounds(),
		"rounding", cfg.Result.Rounding,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := metrics.New()
	svc := api.NewService(policyFrom(cfg), reg)
	health := probe.New()

	// Hot-reload validation bounds, rounding and log level.
	if *configPath != "" {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				svc.SetPolicy(policyFrom(updated))
				level.Set(updated.Server.SlogLevel())
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Optional gRPC health service.
	var grpcSrv *grpc.Server
	if cfg.Server.GRPCPort != 0 {
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(probe.LoggingInterceptor()))
		health.Register(grpcSrv)

		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
		if err != nil {
			slog.Error("failed to listen on gRPC port",
				"port", cfg.Server.GRPCPort, "err", err)
			os.Exit(1)
		}
		go func() {
			slog.Info("gRPC health service listening", "port", cfg.Server.GRPCPort)
			if err := grpcSrv.Serve(lis); err != nil {
				slog.Error("gRPC server stopped", "err", err)
			}
		}()
	}

	hub := ws.New(svc)
	go hub.Run(ctx)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: newHandler(svc, reg, hub, health),
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
			cancel()
		}
	}()

	health.SetServing(true)

	<-ctx.Done()
	slog.Info("mdrdcalc-server shutting down")
	health.Shutdown()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "err", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
}

// newHandler mounts every HTTP route and applies the CORS policy to all of
// them, including /metrics and /healthz.
func newHandler(svc *api.Service, reg *metrics.Registry, hub *ws.Hub, health *probe.Probe) http.Handler {
	calc := api.New(svc, reg)
	mux := http.NewServeMux()
	mux.Handle(api.PathFormCalculate, calc)
	mux.Handle(api.PathJSONCalculate, calc)
	mux.Handle("/ws/calculate", hub)
	mux.Handle("/metrics", reg)
	mux.Handle("/healthz", health)
	return api.CORS(mux)
}

// policyFrom converts the loaded configuration into the calculator policy.
func policyFrom(cfg *config.Config) api.Policy {
	return api.Policy{
		Bounds:   cfg.Validation.Bounds(),
		Rounding: cfg.Result.Rounding,
	}
}
