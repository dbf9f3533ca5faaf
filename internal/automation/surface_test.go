package automation

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/scene"
)

func newTestSurface() *Surface {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := game.New(logger)
	gameScene := scene.NewGameScene(logger, engine)

	return New(logger, engine, gameScene, nil)
}

func TestSurface_StateQueries(t *testing.T) {
	// Given: a fresh surface
	surface := newTestSurface()

	// Then: queries report the initial session
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, surface.BoardState())
	assert.Equal(t, "X", surface.CurrentPlayer())
	assert.True(t, surface.IsGameActive())
	assert.Empty(t, surface.Winner())

	// When: a full snapshot is taken after one move
	require.True(t, surface.MakeMove(4))
	state := surface.State()

	// Then: the snapshot is consistent
	assert.Equal(t, "X", state.Board[4])
	assert.Equal(t, "O", state.Turn)
	assert.True(t, state.Active)
}

func TestSurface_MakeMove(t *testing.T) {
	t.Run("Accepted move reports true", func(t *testing.T) {
		// Given: a fresh surface
		surface := newTestSurface()

		// When: a valid move is made
		accepted := surface.MakeMove(4)

		// Then: the move is reported as accepted
		assert.True(t, accepted)
		assert.Equal(t, "X", surface.BoardState()[4])
	})

	t.Run("Rejected move reports false, not an error", func(t *testing.T) {
		// Given: a surface where cell 4 is taken
		surface := newTestSurface()
		require.True(t, surface.MakeMove(4))

		// When: invalid moves are attempted
		// Then: each reports false and state is unchanged
		assert.False(t, surface.MakeMove(4))
		assert.False(t, surface.MakeMove(-1))
		assert.False(t, surface.MakeMove(9))
		assert.Equal(t, "O", surface.CurrentPlayer())
	})

	t.Run("No move succeeds after the game ends until restart", func(t *testing.T) {
		// Given: a game X won
		surface := newTestSurface()
		for _, cell := range []int{0, 3, 1, 4, 2} {
			require.True(t, surface.MakeMove(cell))
		}
		require.False(t, surface.IsGameActive())

		// When: playing an empty cell after the end
		assert.False(t, surface.MakeMove(8))

		// Then: the same cell succeeds after a restart
		surface.Restart()
		assert.True(t, surface.MakeMove(8))
	})
}

func TestSurface_InputSimulation(t *testing.T) {
	t.Run("Click on a cell plays it", func(t *testing.T) {
		// Given: a fresh surface
		surface := newTestSurface()

		// When: the center cell is clicked
		require.NoError(t, surface.Click(scene.CellPath(4)))

		// Then: the move is on the board
		assert.Equal(t, "X", surface.BoardState()[4])
	})

	t.Run("Click on an occupied cell is an accepted no-op", func(t *testing.T) {
		// Given: a surface with the center taken
		surface := newTestSurface()
		require.NoError(t, surface.Click(scene.CellPath(4)))

		// When: the same cell is clicked again
		err := surface.Click(scene.CellPath(4))

		// Then: no error and no state change
		require.NoError(t, err)
		assert.Equal(t, "O", surface.CurrentPlayer())
	})

	t.Run("Click on an unknown node is not found", func(t *testing.T) {
		// Given: a fresh surface
		surface := newTestSurface()

		// When: clicking a bogus path
		err := surface.Click("/root/NonExistent")

		// Then: the driver gets a not-found outcome
		require.ErrorIs(t, err, apperror.ErrNodeNotFound)
	})

	t.Run("Key press restarts the game", func(t *testing.T) {
		// Given: a surface with one move played
		surface := newTestSurface()
		require.True(t, surface.MakeMove(0))

		// When: the restart key is pressed
		surface.PressKey("r")

		// Then: the session is fresh again
		assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, surface.BoardState())
		assert.True(t, surface.IsGameActive())
	})
}

func TestSurface_Introspection(t *testing.T) {
	// Given: a fresh surface
	surface := newTestSurface()

	// When: resolving the game node
	node, err := surface.GetNode(scene.GamePath)

	// Then: name, class and path are reported
	require.NoError(t, err)
	assert.Equal(t, NodeInfo{Name: "Game", Class: "Control", Path: scene.GamePath}, node)

	// Then: existence checks and queries work
	assert.True(t, surface.NodeExists(scene.GamePath))
	assert.False(t, surface.NodeExists("/root/NonExistent"))
	assert.Len(t, surface.QueryNodes("*Cell*"), 9)
	assert.Equal(t, 9, surface.CountNodes("*Cell*"))

	// Then: the status label reflects engine state
	text, err := surface.GetProperty(scene.StatusLabelPath, "text")
	require.NoError(t, err)
	assert.Equal(t, "X's Turn", text)

	_, err = surface.GetNode("/root/NonExistent")
	require.ErrorIs(t, err, apperror.ErrNodeNotFound)
}

func TestSurface_Watch(t *testing.T) {
	t.Run("Watcher registered before the move receives the event", func(t *testing.T) {
		// Given: a watcher for turn changes
		surface := newTestSurface()
		watcher := surface.Watch(game.EventTurnChanged)
		defer watcher.Close()

		// When: a move is made and the driver awaits afterwards
		require.True(t, surface.MakeMove(0))

		event, err := watcher.Await(context.Background(), time.Second)

		// Then: the buffered notification resolves the wait
		require.NoError(t, err)
		assert.Equal(t, game.Event{Kind: game.EventTurnChanged, Player: "O"}, event)
	})

	t.Run("Game end is observable while a driver awaits", func(t *testing.T) {
		// Given: a watcher for the game end and a concurrent driver
		surface := newTestSurface()
		watcher := surface.Watch(game.EventGameEnded)
		defer watcher.Close()

		var wg sync.WaitGroup
		wg.Add(1)

		var event game.Event
		var err error

		go func() {
			defer wg.Done()
			event, err = watcher.Await(context.Background(), 2*time.Second)
		}()

		// When: X plays out a top-row win
		for _, cell := range []int{0, 3, 1, 4, 2} {
			require.True(t, surface.MakeMove(cell))
		}

		wg.Wait()

		// Then: the awaiting driver saw the result
		require.NoError(t, err)
		assert.Equal(t, game.Event{Kind: game.EventGameEnded, Result: "X"}, event)
	})

	t.Run("Await times out when no event fires", func(t *testing.T) {
		// Given: a watcher with nothing happening
		surface := newTestSurface()
		watcher := surface.Watch(game.EventGameEnded)
		defer watcher.Close()

		// When: awaiting with a short timeout
		_, err := watcher.Await(context.Background(), 20*time.Millisecond)

		// Then: the wait fails with a timeout, not a hang
		require.ErrorIs(t, err, apperror.ErrWaitTimeout)
	})

	t.Run("Cancellation releases the wait without side effects", func(t *testing.T) {
		// Given: a watcher and an already-canceled context
		surface := newTestSurface()
		watcher := surface.Watch(game.EventTurnChanged)
		defer watcher.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// When: awaiting with the canceled context
		_, err := watcher.Await(ctx, time.Second)

		// Then: the wait reports cancellation and the engine is intact
		require.ErrorIs(t, err, apperror.ErrWaitCanceled)
		assert.True(t, surface.IsGameActive())
	})

	t.Run("Watcher ignores other event kinds", func(t *testing.T) {
		// Given: a watcher for game end only
		surface := newTestSurface()
		watcher := surface.Watch(game.EventGameEnded)
		defer watcher.Close()

		// When: a plain turn change happens
		require.True(t, surface.MakeMove(0))

		// Then: the wait still times out
		_, err := watcher.Await(context.Background(), 20*time.Millisecond)
		require.ErrorIs(t, err, apperror.ErrWaitTimeout)
	})
}

func TestSurface_WaitUntil(t *testing.T) {
	t.Run("Resolves immediately when the condition already holds", func(t *testing.T) {
		// Given: a fresh surface
		surface := newTestSurface()

		// When: waiting for the board to be empty
		err := surface.WaitUntil(context.Background(), time.Second, func() bool {
			return surface.BoardState()[0] == ""
		})

		// Then: the wait resolves without any event
		require.NoError(t, err)
	})

	t.Run("Resolves when an event satisfies the condition", func(t *testing.T) {
		// Given: a driver waiting for cell 4 to be taken
		surface := newTestSurface()

		errCh := make(chan error, 1)
		go func() {
			errCh <- surface.WaitUntil(context.Background(), 2*time.Second, func() bool {
				return surface.BoardState()[4] == "X"
			})
		}()

		// When: the move lands
		require.True(t, surface.MakeMove(4))

		// Then: the wait resolves
		require.NoError(t, <-errCh)
	})

	t.Run("Times out when the condition never holds", func(t *testing.T) {
		// Given: a fresh surface
		surface := newTestSurface()

		// When: waiting for an impossible condition
		err := surface.WaitUntil(context.Background(), 20*time.Millisecond, func() bool {
			return !surface.IsGameActive()
		})

		// Then: the wait fails with a timeout
		require.ErrorIs(t, err, apperror.ErrWaitTimeout)
	})
}
