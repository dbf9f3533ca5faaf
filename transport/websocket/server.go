// Package websocket carries the remote automation channel: a JSON
// request/response protocol over a websocket, plus the Go client used by
// out-of-process drivers. Commands are serialized per connection by the
// read loop, and globally by the automation surface, so at most one
// command runs against the engine at a time.
package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playtest-dev/tictactoe-automation/internal/automation"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/monitor"
)

// eventQueueSize bounds the per-connection notification backlog kept
// between wait_event calls.
const eventQueueSize = 64

type Server struct {
	logger  *slog.Logger
	surface *automation.Surface
	metrics *monitor.Metrics

	upgrader websocket.Upgrader
}

func New(logger *slog.Logger, surface *automation.Surface, metrics *monitor.Metrics) *Server {
	return &Server{
		logger:  logger.With("component", "automation-server"),
		surface: surface,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			// The channel is local automation only; no origin policy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler for the /automation endpoint, usable
// both by Start and by in-process test servers.
func (that *Server) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := that.upgrader.Upgrade(w, r, nil)
		if err != nil {
			that.logger.Error("failed to upgrade connection", "error", err)
			return
		}

		that.handleConn(ctx, conn)
	})
}

// Start serves the automation endpoint until the listener fails or ctx
// is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.Handle("/automation", that.Handler(ctx))

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("automation server shutdown", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start automation server: %w", err)
	}

	return nil
}

func (that *Server) handleConn(ctx context.Context, conn *websocket.Conn) {
	log := that.logger.With("remote", conn.RemoteAddr().String())
	log.Info("automation driver connected")

	defer conn.Close()

	// Notifications are queued per kind from the moment the driver
	// connects, so a command issued before wait_event never loses its
	// event.
	queues := newEventQueues()
	unsubscribe := that.surface.Subscribe(queues.push)
	defer unsubscribe()

	handlers := that.commandHandlers(ctx, queues)

	for {
		var request automation.Request
		if err := conn.ReadJSON(&request); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("failed to read request", "error", err)
			} else {
				log.Info("automation driver disconnected")
			}

			return
		}

		response := that.execute(handlers, &request)

		if err := conn.WriteJSON(response); err != nil {
			log.Error("failed to write response", "error", err)
			return
		}
	}
}

func (that *Server) execute(handlers map[string]commandHandler, request *automation.Request) automation.Response {
	if that.metrics != nil {
		that.metrics.CommandsTotal.WithLabelValues(request.Command).Inc()
	}

	handler, ok := handlers[request.Command]
	if !ok {
		return errorResponse(request.ID, codeUnknownCommand, fmt.Sprintf("unknown command: %s", request.Command))
	}

	result, err := handler(request.Payload)
	if err != nil {
		return errorResponse(request.ID, errorCode(err), err.Error())
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return errorResponse(request.ID, codeInternal, fmt.Sprintf("failed to marshal result: %v", err))
	}

	return automation.Response{ID: request.ID, OK: true, Result: raw}
}

// eventQueues keeps one bounded queue per notification kind so waiting
// for game_ended never consumes a pending turn_changed.
type eventQueues struct {
	turnChanged chan game.Event
	gameEnded   chan game.Event
}

func newEventQueues() *eventQueues {
	return &eventQueues{
		turnChanged: make(chan game.Event, eventQueueSize),
		gameEnded:   make(chan game.Event, eventQueueSize),
	}
}

func (that *eventQueues) push(event game.Event) {
	queue := that.forKind(event.Kind)
	if queue == nil {
		return
	}

	select {
	case queue <- event:
	default:
		// Oldest-backlog overflow is dropped; the driver still sees
		// the buffered history up to the queue size.
	}
}

func (that *eventQueues) forKind(kind game.EventKind) chan game.Event {
	switch kind {
	case game.EventTurnChanged:
		return that.turnChanged
	case game.EventGameEnded:
		return that.gameEnded
	default:
		return nil
	}
}
