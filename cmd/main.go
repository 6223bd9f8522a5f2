/*
Package main is the entry point for the room relay server.

It loads configuration, initializes the global logging system, wires the room store,
WebSocket hub and session coordinator behind the HTTP router, and shuts everything
down in order when the process receives SIGINT or SIGTERM.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"roomrelay/internal/app/room"
	"roomrelay/internal/app/session"
	"roomrelay/internal/configs"
	"roomrelay/internal/handler"
	"roomrelay/internal/pkg/logx"
	"roomrelay/internal/transport/ws"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Int("history_limit", cfg.HistoryLimit).
		Int("event_queue_size", cfg.EventQueueSize).
		Msg("Configuration loaded successfully")

	store := room.NewStore(cfg.HistoryLimit)

	hub := ws.NewHub(ws.Options{
		SendBuffer:     cfg.WSSendBuffer,
		MaxMessageSize: cfg.WSMaxMessageBytes,
	})

	coordinator := session.NewCoordinator(store, hub, cfg.EventQueueSize)
	coordinator.Start()

	router := handler.Router(&handler.AppDeps{
		Coordinator: coordinator,
		Hub:         hub,
		Config:      cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Room relay server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"room-relay": func(ctx context.Context) error {
				logx.Info("Received shutdown signal. Starting graceful shutdown...")

				// Hijacked WebSocket connections are not tracked by the server.
				err := server.Shutdown(ctx)
				hub.Close()
				coordinator.Shutdown()

				return err
			},
		},
	)

	exitCode := <-wait
	logx.Info("Server stopped.", "exit_code", exitCode)
	os.Exit(exitCode)
}
