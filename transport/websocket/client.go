package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
	"github.com/playtest-dev/tictactoe-automation/internal/automation"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
)

// Client is the out-of-process automation driver: it speaks the same
// command set as the in-process surface over the websocket channel.
// A client issues one command at a time; Call serializes callers.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Dial connects to an automation endpoint, e.g.
// ws://localhost:9091/automation.
func Dial(ctx context.Context, url string) (*Client, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial automation endpoint: %w", err)
	}

	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	return &Client{conn: conn}, nil
}

func (that *Client) Close() error {
	return that.conn.Close()
}

// Call sends one command and decodes the matching response into result.
// A nil result discards the response body. Failed responses come back as
// the sentinel error matching their code.
func (that *Client) Call(ctx context.Context, command string, payload, result any) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	request := automation.Request{
		ID:      uuid.NewString(),
		Command: command,
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		request.Payload = raw
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = that.conn.SetWriteDeadline(deadline)
		_ = that.conn.SetReadDeadline(deadline)
	} else {
		_ = that.conn.SetWriteDeadline(time.Time{})
		_ = that.conn.SetReadDeadline(time.Time{})
	}

	if err := that.conn.WriteJSON(request); err != nil {
		return fmt.Errorf("failed to send %s: %w", command, err)
	}

	// Commands are strictly serialized, so the next response with our
	// ID is ours; anything else is a protocol violation.
	var response automation.Response
	if err := that.conn.ReadJSON(&response); err != nil {
		return fmt.Errorf("failed to read %s response: %w", command, err)
	}

	if response.ID != request.ID {
		return fmt.Errorf("response id mismatch: sent %s, got %s", request.ID, response.ID)
	}

	if !response.OK {
		return responseError(command, &response)
	}

	if result != nil {
		if err := json.Unmarshal(response.Result, result); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", command, err)
		}
	}

	return nil
}

func responseError(command string, response *automation.Response) error {
	var sentinel error

	switch response.Code {
	case codeNotFound:
		sentinel = apperror.ErrNodeNotFound
	case codeTimeout:
		sentinel = apperror.ErrWaitTimeout
	case codeCanceled:
		sentinel = apperror.ErrWaitCanceled
	case codeUnknownCommand:
		sentinel = apperror.ErrUnknownCommand
	default:
		sentinel = errors.New(response.Error)

		return fmt.Errorf("%s failed: %w", command, sentinel)
	}

	return fmt.Errorf("%s failed: %w (%s)", command, sentinel, response.Error)
}

// GetBoardState returns the 9-cell board snapshot.
func (that *Client) GetBoardState(ctx context.Context) ([]string, error) {
	var board []string
	if err := that.Call(ctx, automation.CmdGetBoardState, nil, &board); err != nil {
		return nil, err
	}

	return board, nil
}

// MakeMove plays a cell and reports whether the move was accepted.
func (that *Client) MakeMove(ctx context.Context, cell int) (bool, error) {
	var result automation.MoveResult
	if err := that.Call(ctx, automation.CmdMakeMove, automation.MovePayload{Cell: cell}, &result); err != nil {
		return false, err
	}

	return result.Accepted, nil
}

func (that *Client) IsGameActive(ctx context.Context) (bool, error) {
	var result automation.BoolResult
	if err := that.Call(ctx, automation.CmdIsGameActive, nil, &result); err != nil {
		return false, err
	}

	return result.Value, nil
}

func (that *Client) GetCurrentPlayer(ctx context.Context) (string, error) {
	var result automation.StringResult
	if err := that.Call(ctx, automation.CmdGetCurrentPlayer, nil, &result); err != nil {
		return "", err
	}

	return result.Value, nil
}

func (that *Client) GetWinner(ctx context.Context) (string, error) {
	var result automation.StringResult
	if err := that.Call(ctx, automation.CmdGetWinner, nil, &result); err != nil {
		return "", err
	}

	return result.Value, nil
}

func (that *Client) Restart(ctx context.Context) error {
	return that.Call(ctx, automation.CmdRestart, nil, nil)
}

func (that *Client) ReloadScene(ctx context.Context) error {
	return that.Call(ctx, automation.CmdReloadScene, nil, nil)
}

// Click simulates a pointer press on a node path.
func (that *Client) Click(ctx context.Context, nodePath string) error {
	return that.Call(ctx, automation.CmdClick, automation.NodePayload{Path: nodePath}, nil)
}

// PressKey simulates a key press.
func (that *Client) PressKey(ctx context.Context, key string) error {
	return that.Call(ctx, automation.CmdPressKey, automation.KeyPayload{Key: key}, nil)
}

// GetNode resolves a node path to its description.
func (that *Client) GetNode(ctx context.Context, nodePath string) (automation.NodeInfo, error) {
	var info automation.NodeInfo
	if err := that.Call(ctx, automation.CmdGetNode, automation.NodePayload{Path: nodePath}, &info); err != nil {
		return automation.NodeInfo{}, err
	}

	return info, nil
}

func (that *Client) NodeExists(ctx context.Context, nodePath string) (bool, error) {
	var result automation.BoolResult
	if err := that.Call(ctx, automation.CmdNodeExists, automation.NodePayload{Path: nodePath}, &result); err != nil {
		return false, err
	}

	return result.Value, nil
}

// GetProperty reads a display property of a node.
func (that *Client) GetProperty(ctx context.Context, nodePath, name string) (any, error) {
	var result automation.PropertyResult
	payload := automation.PropertyPayload{Path: nodePath, Name: name}
	if err := that.Call(ctx, automation.CmdGetProperty, payload, &result); err != nil {
		return nil, err
	}

	return result.Value, nil
}

func (that *Client) QueryNodes(ctx context.Context, pattern string) ([]string, error) {
	var result automation.QueryResult
	if err := that.Call(ctx, automation.CmdQueryNodes, automation.QueryPayload{Pattern: pattern}, &result); err != nil {
		return nil, err
	}

	return result.Paths, nil
}

func (that *Client) CountNodes(ctx context.Context, pattern string) (int, error) {
	var result automation.CountResult
	if err := that.Call(ctx, automation.CmdCountNodes, automation.QueryPayload{Pattern: pattern}, &result); err != nil {
		return 0, err
	}

	return result.Count, nil
}

// Screenshot returns the rendered board as PNG bytes.
func (that *Client) Screenshot(ctx context.Context) ([]byte, error) {
	var result automation.ScreenshotResult
	if err := that.Call(ctx, automation.CmdScreenshot, nil, &result); err != nil {
		return nil, err
	}

	return result.PNG, nil
}

// WaitEvent blocks until the named notification fires on the server or
// the timeout elapses; timeouts surface as apperror.ErrWaitTimeout.
func (that *Client) WaitEvent(ctx context.Context, kind game.EventKind, timeout time.Duration) (game.Event, error) {
	payload := automation.WaitEventPayload{
		Event:     string(kind),
		TimeoutMS: int(timeout / time.Millisecond),
	}

	// Give the websocket read a margin past the server-side timeout so
	// the timeout response itself can arrive.
	callCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout+5*time.Second)
		defer cancel()
	}

	var event game.Event
	if err := that.Call(callCtx, automation.CmdWaitEvent, payload, &event); err != nil {
		return game.Event{}, err
	}

	return event, nil
}
