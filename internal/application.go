package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/playtest-dev/tictactoe-automation/internal/automation"
	"github.com/playtest-dev/tictactoe-automation/internal/config"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/monitor"
	"github.com/playtest-dev/tictactoe-automation/internal/scene"
	"github.com/playtest-dev/tictactoe-automation/transport/rest"
	"github.com/playtest-dev/tictactoe-automation/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	registry := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(conf.Metrics.Namespace)
	metrics.Register(registry)

	engine := game.New(logger)
	gameScene := scene.NewGameScene(logger, engine)
	surface := automation.New(logger, engine, gameScene, metrics)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, registry); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run automation server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting automation server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, surface, metrics)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("automation server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err := <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-wsErrCh:
		return fmt.Errorf("automation server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
