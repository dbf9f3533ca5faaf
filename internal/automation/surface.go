// Package automation exposes the game engine and its scene to external
// drivers: an in-process harness calling methods directly, and a remote
// request/response channel speaking the same commands. Both go through
// one Surface so the rule logic is never duplicated per transport.
package automation

import (
	"log/slog"
	"sync"

	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/monitor"
	"github.com/playtest-dev/tictactoe-automation/internal/scene"
)

// Surface serializes every command against one engine instance: at most
// one command is in flight at a time, whatever the transport.
type Surface struct {
	mu sync.Mutex

	logger  *slog.Logger
	engine  *game.Engine
	scene   *scene.GameScene
	metrics *monitor.Metrics
}

// New wires a surface over engine and its scene. metrics may be nil.
func New(logger *slog.Logger, engine *game.Engine, gameScene *scene.GameScene, metrics *monitor.Metrics) *Surface {
	return &Surface{
		logger:  logger.With("component", "automation"),
		engine:  engine,
		scene:   gameScene,
		metrics: metrics,
	}
}

// State returns the full session snapshot in one atomic read.
func (that *Surface) State() StatePayload {
	that.mu.Lock()
	defer that.mu.Unlock()

	return StatePayload{
		Board:  that.engine.BoardState(),
		Turn:   that.engine.CurrentPlayer(),
		Active: that.engine.IsActive(),
		Winner: that.engine.Winner(),
	}
}

// BoardState returns the 9-cell board snapshot.
func (that *Surface) BoardState() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.engine.BoardState()
}

func (that *Surface) CurrentPlayer() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.engine.CurrentPlayer()
}

func (that *Surface) IsGameActive() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.engine.IsActive()
}

func (that *Surface) Winner() string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.engine.Winner()
}

// MakeMove forwards to the engine and maps the outcome to a boolean: a
// rejected move is a normal false result for drivers, never an error.
func (that *Surface) MakeMove(cell int) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.engine.MakeMove(cell); err != nil {
		if that.metrics != nil {
			that.metrics.InvalidMovesTotal.Inc()
		}

		return false
	}

	if that.metrics != nil {
		that.metrics.MovesTotal.Inc()

		if !that.engine.IsActive() {
			result := that.engine.Winner()
			if result == "" {
				result = game.ResultDraw
			}
			that.metrics.GamesFinishedTotal.WithLabelValues(result).Inc()
		}
	}

	return true
}

// Restart resets the session and redraws the scene.
func (that *Surface) Restart() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.scene.Restart()

	if that.metrics != nil {
		that.metrics.RestartsTotal.Inc()
	}
}

// ReloadScene matches the remote protocol's scene reload: with a single
// scene this is a full session reset.
func (that *Surface) ReloadScene() {
	that.Restart()
}

// Click simulates a pointer press on a node path. Invalid targets inside
// a resolvable node are no-ops; only an unknown path is an error.
func (that *Surface) Click(nodePath string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.Click(nodePath)
}

// PressKey simulates a key press.
func (that *Surface) PressKey(key string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.scene.PressKey(key)
}

// GetNode resolves a node path to its description.
func (that *Surface) GetNode(nodePath string) (NodeInfo, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	node, err := that.scene.Resolve(nodePath)
	if err != nil {
		return NodeInfo{}, err
	}

	return NodeInfo{Name: node.Name, Class: node.Class, Path: node.Path()}, nil
}

func (that *Surface) NodeExists(nodePath string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.Exists(nodePath)
}

// GetProperty reads a display property of a node, used by drivers to
// assert the UI reflects engine state.
func (that *Surface) GetProperty(nodePath, name string) (any, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.GetProperty(nodePath, name)
}

func (that *Surface) QueryNodes(pattern string) []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.Query(pattern)
}

func (that *Surface) CountNodes(pattern string) int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.Count(pattern)
}

// Screenshot renders the board to PNG bytes.
func (that *Surface) Screenshot() ([]byte, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.scene.Screenshot()
}

// Subscribe registers an engine listener under the command lock, so
// listener registration never races an in-flight move. Listeners run
// synchronously inside the command that emitted the event and must not
// issue surface commands themselves.
func (that *Surface) Subscribe(fn func(game.Event)) func() {
	that.mu.Lock()
	unsubscribe := that.engine.Subscribe(fn)
	that.mu.Unlock()

	return func() {
		that.mu.Lock()
		defer that.mu.Unlock()
		unsubscribe()
	}
}
