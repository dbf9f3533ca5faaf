// Package suite spins up the full automation stack for end-to-end
// tests: engine, scene, surface, websocket server on an ephemeral
// listener, and a connected driver client.
package suite

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/playtest-dev/tictactoe-automation/internal/automation"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/monitor"
	"github.com/playtest-dev/tictactoe-automation/internal/scene"
	"github.com/playtest-dev/tictactoe-automation/transport/websocket"
)

const maxWaitDuration = 30 * time.Second

type Suite struct {
	*testing.T
	Logger *slog.Logger

	Engine  *game.Engine
	Surface *automation.Surface
	Client  *websocket.Client
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	metrics := monitor.NewMetrics("tictactoe_test")

	engine := game.New(logger)
	gameScene := scene.NewGameScene(logger, engine)
	surface := automation.New(logger, engine, gameScene, metrics)
	server := websocket.New(logger, surface, metrics)

	httpServer := httptest.NewServer(server.Handler(ctx))
	t.Cleanup(httpServer.Close)

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/automation"

	client, err := websocket.Dial(ctx, url)
	if err != nil {
		t.Fatalf("could not connect to automation server: %v", err)
	}

	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Logf("could not close client: %v", err)
		}
	})

	return ctx, &Suite{
		T:       t,
		Logger:  logger,
		Engine:  engine,
		Surface: surface,
		Client:  client,
	}
}
