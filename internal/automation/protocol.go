package automation

import "encoding/json"

// Command names understood by the remote automation channel. They match
// the method names of the in-process surface one to one.
const (
	CmdGetBoardState    = "get_board_state"
	CmdMakeMove         = "make_move"
	CmdIsGameActive     = "is_game_active"
	CmdGetCurrentPlayer = "get_current_player"
	CmdGetWinner        = "get_winner"
	CmdRestart          = "restart"
	CmdReloadScene      = "reload_scene"
	CmdClick            = "click"
	CmdPressKey         = "press_key"
	CmdGetNode          = "get_node"
	CmdNodeExists       = "node_exists"
	CmdGetProperty      = "get_property"
	CmdQueryNodes       = "query_nodes"
	CmdCountNodes       = "count_nodes"
	CmdScreenshot       = "screenshot"
	CmdWaitEvent        = "wait_event"
)

// Request is one command sent by a remote driver. Requests carry no
// identity beyond the echo ID; the server keeps at most one in flight.
type Request struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers exactly one Request, matched by ID. Code classifies
// failures (timeout, not_found, ...) so drivers need not parse Error.
type Response struct {
	ID     string          `json:"id"`
	OK     bool            `json:"ok"`
	Code   string          `json:"code,omitempty"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

// StatePayload is the full session snapshot returned by state queries.
type StatePayload struct {
	Board  []string `json:"board"`
	Turn   string   `json:"turn"`
	Active bool     `json:"active"`
	Winner string   `json:"winner"`
}

type MovePayload struct {
	Cell int `json:"cell"`
}

type MoveResult struct {
	Accepted bool `json:"accepted"`
}

type NodePayload struct {
	Path string `json:"path"`
}

type KeyPayload struct {
	Key string `json:"key"`
}

type PropertyPayload struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type PropertyResult struct {
	Value any `json:"value"`
}

type QueryPayload struct {
	Pattern string `json:"pattern"`
}

type QueryResult struct {
	Paths []string `json:"paths"`
}

type CountResult struct {
	Count int `json:"count"`
}

type BoolResult struct {
	Value bool `json:"value"`
}

type StringResult struct {
	Value string `json:"value"`
}

// NodeInfo describes a resolved node for introspection.
type NodeInfo struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Path  string `json:"path"`
}

// ScreenshotResult carries base64 PNG data via the json []byte encoding.
type ScreenshotResult struct {
	PNG []byte `json:"png"`
}

// WaitEventPayload asks the server to block until the named event fires
// or the timeout elapses, whichever is first.
type WaitEventPayload struct {
	Event     string `json:"event"`
	TimeoutMS int    `json:"timeout_ms"`
}
