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

	"github.com/tonerelay/tonerelay/server/internal/api"
	"github.com/tonerelay/tonerelay/server/internal/config"
	"github.com/tonerelay/tonerelay/server/internal/registry"
	"github.com/tonerelay/tonerelay/server/internal/relay"
	"github.com/tonerelay/tonerelay/server/internal/store"
	"github.com/tonerelay/tonerelay/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file; built-in defaults are used when empty")
	envFile := flag.String("env", ".env", "optional dotenv file loaded before the config")
	flag.Parse()

	// Missing .env is normal; the variables may come from the environment.
	envErr := godotenv.Load(*envFile)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.Log.SlogLevel())
	slog.SetDefault(newLogger(cfg.Log.Format, level))

	if envErr != nil {
		slog.Debug("no .env file loaded", "path", *envFile)
	}

	seed := cfg.Relay.SeedOscillators()
	slog.Info("config loaded",
		"config", *configPath,
		"port", cfg.Relay.Port,
		"admin_port", cfg.Admin.Port,
		"seed_oscillators", len(seed),
		"log_level", level.Level().String(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				level.Set(updated.Log.SlogLevel())
				slog.Info("config hot-reloaded", "log_level", level.Level().String())
			})
			if err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	// Canonical state and connection set, owned here for the process lifetime.
	st := store.New(seed)
	reg := registry.New()
	dispatcher := relay.New(st, reg, relay.DefaultQueueSize)
	go dispatcher.Run(ctx)

	relaySrv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Relay.Port),
		Handler: ws.New(dispatcher, ws.Options{
			SendBuffer:      cfg.Relay.WS.SendBuffer,
			MaxMessageBytes: cfg.Relay.WS.MaxMessageBytes,
			PingInterval:    cfg.Relay.WS.PingInterval,
			WriteTimeout:    cfg.Relay.WS.WriteTimeout,
			FallbackMessage: cfg.Relay.FallbackMessage,
		}),
	}

	// Bind before logging readiness so a port conflict is fatal up front.
	lis, err := net.Listen("tcp", relaySrv.Addr)
	if err != nil {
		slog.Error("failed to listen on relay port", "port", cfg.Relay.Port, "err", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("audio engine relay started", "url", fmt.Sprintf("ws://localhost:%d", cfg.Relay.Port))
		if err := relaySrv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("relay server stopped", "err", err)
			cancel()
		}
	}()

	var adminSrv *http.Server
	if cfg.Admin.Enabled() {
		adminSrv = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Admin.Port),
			Handler: api.LogRequests(api.New(st, dispatcher)),
		}
		go func() {
			slog.Info("admin server listening", "port", cfg.Admin.Port)
			if err := adminSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("admin server stopped", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("relay shutting down")

	// Dispatcher closes every peer with a close frame once ctx is done.
	select {
	case <-dispatcher.Done():
	case <-time.After(shutdownTimeout):
		slog.Warn("dispatcher did not stop in time")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := relaySrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("relay shutdown error", "err", err)
	}
	if adminSrv != nil {
		adminSrv.Shutdown(shutdownCtx) //nolint:errcheck
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(format string, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
