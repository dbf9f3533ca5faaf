package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
	"github.com/playtest-dev/tictactoe-automation/internal/automation"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
)

// Error codes carried on failed responses so drivers can tell a timeout
// from a missing node without parsing message text.
const (
	codeNotFound       = "not_found"
	codeTimeout        = "timeout"
	codeCanceled       = "canceled"
	codeBadRequest     = "bad_request"
	codeUnknownCommand = "unknown_command"
	codeInternal       = "internal"
)

// defaultWaitTimeout applies when a wait_event request carries no
// timeout of its own.
const defaultWaitTimeout = 5 * time.Second

type commandHandler func(payload json.RawMessage) (any, error)

var errBadPayload = errors.New("malformed payload")

func errorCode(err error) string {
	switch {
	case errors.Is(err, apperror.ErrNodeNotFound):
		return codeNotFound
	case errors.Is(err, apperror.ErrWaitTimeout):
		return codeTimeout
	case errors.Is(err, apperror.ErrWaitCanceled):
		return codeCanceled
	case errors.Is(err, errBadPayload):
		return codeBadRequest
	default:
		return codeInternal
	}
}

func errorResponse(id, code, message string) automation.Response {
	return automation.Response{ID: id, OK: false, Code: code, Error: message}
}

// commandHandlers builds the dispatch table for one connection. All
// handlers go through the shared surface; only wait_event touches the
// per-connection queues.
func (that *Server) commandHandlers(ctx context.Context, queues *eventQueues) map[string]commandHandler {
	surface := that.surface

	return map[string]commandHandler{
		automation.CmdGetBoardState: func(json.RawMessage) (any, error) {
			return surface.BoardState(), nil
		},
		automation.CmdIsGameActive: func(json.RawMessage) (any, error) {
			return automation.BoolResult{Value: surface.IsGameActive()}, nil
		},
		automation.CmdGetCurrentPlayer: func(json.RawMessage) (any, error) {
			return automation.StringResult{Value: surface.CurrentPlayer()}, nil
		},
		automation.CmdGetWinner: func(json.RawMessage) (any, error) {
			return automation.StringResult{Value: surface.Winner()}, nil
		},
		automation.CmdMakeMove: func(payload json.RawMessage) (any, error) {
			var move automation.MovePayload
			if err := unmarshalPayload(payload, &move); err != nil {
				return nil, err
			}

			return automation.MoveResult{Accepted: surface.MakeMove(move.Cell)}, nil
		},
		automation.CmdRestart: func(json.RawMessage) (any, error) {
			surface.Restart()
			return struct{}{}, nil
		},
		automation.CmdReloadScene: func(json.RawMessage) (any, error) {
			surface.ReloadScene()
			return struct{}{}, nil
		},
		automation.CmdClick: func(payload json.RawMessage) (any, error) {
			var target automation.NodePayload
			if err := unmarshalPayload(payload, &target); err != nil {
				return nil, err
			}

			if err := surface.Click(target.Path); err != nil {
				return nil, err
			}

			return struct{}{}, nil
		},
		automation.CmdPressKey: func(payload json.RawMessage) (any, error) {
			var key automation.KeyPayload
			if err := unmarshalPayload(payload, &key); err != nil {
				return nil, err
			}

			surface.PressKey(key.Key)

			return struct{}{}, nil
		},
		automation.CmdGetNode: func(payload json.RawMessage) (any, error) {
			var target automation.NodePayload
			if err := unmarshalPayload(payload, &target); err != nil {
				return nil, err
			}

			return surface.GetNode(target.Path)
		},
		automation.CmdNodeExists: func(payload json.RawMessage) (any, error) {
			var target automation.NodePayload
			if err := unmarshalPayload(payload, &target); err != nil {
				return nil, err
			}

			return automation.BoolResult{Value: surface.NodeExists(target.Path)}, nil
		},
		automation.CmdGetProperty: func(payload json.RawMessage) (any, error) {
			var property automation.PropertyPayload
			if err := unmarshalPayload(payload, &property); err != nil {
				return nil, err
			}

			value, err := surface.GetProperty(property.Path, property.Name)
			if err != nil {
				return nil, err
			}

			return automation.PropertyResult{Value: value}, nil
		},
		automation.CmdQueryNodes: func(payload json.RawMessage) (any, error) {
			var query automation.QueryPayload
			if err := unmarshalPayload(payload, &query); err != nil {
				return nil, err
			}

			return automation.QueryResult{Paths: surface.QueryNodes(query.Pattern)}, nil
		},
		automation.CmdCountNodes: func(payload json.RawMessage) (any, error) {
			var query automation.QueryPayload
			if err := unmarshalPayload(payload, &query); err != nil {
				return nil, err
			}

			return automation.CountResult{Count: surface.CountNodes(query.Pattern)}, nil
		},
		automation.CmdScreenshot: func(json.RawMessage) (any, error) {
			png, err := surface.Screenshot()
			if err != nil {
				return nil, err
			}

			return automation.ScreenshotResult{PNG: png}, nil
		},
		automation.CmdWaitEvent: func(payload json.RawMessage) (any, error) {
			var wait automation.WaitEventPayload
			if err := unmarshalPayload(payload, &wait); err != nil {
				return nil, err
			}

			return that.waitEvent(ctx, queues, wait)
		},
	}
}

// waitEvent blocks the connection's command loop until the requested
// notification arrives from the per-connection queue, the timeout
// elapses, or the server shuts down.
func (that *Server) waitEvent(ctx context.Context, queues *eventQueues, wait automation.WaitEventPayload) (any, error) {
	queue := queues.forKind(game.EventKind(wait.Event))
	if queue == nil {
		return nil, fmt.Errorf("%w: unknown event %q", errBadPayload, wait.Event)
	}

	timeout := defaultWaitTimeout
	if wait.TimeoutMS > 0 {
		timeout = time.Duration(wait.TimeoutMS) * time.Millisecond
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-queue:
		return event, nil
	case <-timer.C:
		return nil, apperror.ErrWaitTimeout
	case <-ctx.Done():
		return nil, apperror.ErrWaitCanceled
	}
}

func unmarshalPayload(payload json.RawMessage, target any) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload is required", errBadPayload)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}

	return nil
}
