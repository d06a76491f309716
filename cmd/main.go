package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/signaling-relay/config"
	"github.com/cwrk-planet/signaling-relay/internal/registry"
	grpcx "github.com/cwrk-planet/signaling-relay/internal/transport/grpc"
	httpx "github.com/cwrk-planet/signaling-relay/internal/transport/http"
	"github.com/cwrk-planet/signaling-relay/internal/transport/ws"
	"github.com/cwrk-planet/signaling-relay/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	lg := logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting signaling-relay",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- registry & signaling router ---
	// single instance: room state lives in this process only
	reg := registry.NewMemory(lg.With("component", "registry"))
	wsServer := ws.NewServer(reg, ws.Options{
		PingPeriod:     cfg.WS.PingPeriod,
		WriteWait:      cfg.WS.WriteWait,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		SendBuffer:     cfg.WS.SendBuffer,
	}, lg.With("component", "ws"))

	// --- HTTP ---
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httpx.NewRouter(wsServer, reg),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// --- gRPC health ---
	grpcSrv := grpcx.NewServer(lg.With("component", "grpc"))

	// --- run both servers ---
	errCh := make(chan error, 2)

	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errCh <- err
			return
		}
		slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
		grpcSrv.SetServing(true)
		if err := grpcSrv.GRPC.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcSrv.GracefulStop()
	// hijacked WebSocket connections are not tracked by Shutdown; they end with the process
	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped", "rooms", reg.Rooms())
}
