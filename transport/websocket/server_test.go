package websocket_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
	"github.com/playtest-dev/tictactoe-automation/internal/scene"
	"github.com/playtest-dev/tictactoe-automation/testing/suite"
)

func TestRemote_StateQueries(t *testing.T) {
	ctx, s := suite.New(t)

	// Given: a connected remote driver
	// Then: the fresh session is fully queryable
	board, err := s.Client.GetBoardState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, board)

	player, err := s.Client.GetCurrentPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "X", player)

	active, err := s.Client.IsGameActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)

	winner, err := s.Client.GetWinner(ctx)
	require.NoError(t, err)
	assert.Empty(t, winner)
}

func TestRemote_PlayWinningGame(t *testing.T) {
	ctx, s := suite.New(t)

	// When: X plays out a top-row win over the wire
	for _, cell := range []int{0, 3, 1, 4, 2} {
		accepted, err := s.Client.MakeMove(ctx, cell)
		require.NoError(t, err)
		require.True(t, accepted, "cell %d", cell)
	}

	// Then: the session ended with X as the winner
	active, err := s.Client.IsGameActive(ctx)
	require.NoError(t, err)
	assert.False(t, active)

	winner, err := s.Client.GetWinner(ctx)
	require.NoError(t, err)
	assert.Equal(t, "X", winner)

	// Then: the status label mirrors the result
	text, err := s.Client.GetProperty(ctx, scene.StatusLabelPath, "text")
	require.NoError(t, err)
	assert.Equal(t, "X Wins!", text)

	// Then: the in-process engine agrees with the remote view
	assert.Equal(t, "X", s.Engine.Winner())
}

func TestRemote_RejectedMoves(t *testing.T) {
	ctx, s := suite.New(t)

	// Given: X took the center
	accepted, err := s.Client.MakeMove(ctx, 4)
	require.NoError(t, err)
	require.True(t, accepted)

	// When: invalid moves are issued remotely
	// Then: each is a clean false, not a transport error
	for _, cell := range []int{4, -1, 9} {
		accepted, err = s.Client.MakeMove(ctx, cell)
		require.NoError(t, err)
		assert.False(t, accepted, "cell %d", cell)
	}

	board, err := s.Client.GetBoardState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "X", board[4])
}

func TestRemote_ClickAndRestart(t *testing.T) {
	ctx, s := suite.New(t)

	// When: the driver clicks two cells and the restart button
	require.NoError(t, s.Client.Click(ctx, scene.CellPath(0)))
	require.NoError(t, s.Client.Click(ctx, scene.CellPath(1)))
	require.NoError(t, s.Client.Click(ctx, scene.RestartButtonPath))

	// Then: the board is reset with X to move
	board, err := s.Client.GetBoardState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, board)

	player, err := s.Client.GetCurrentPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "X", player)

	// When: the occupied-cell click is repeated after a fresh move
	require.NoError(t, s.Client.Click(ctx, scene.CellPath(4)))
	require.NoError(t, s.Client.Click(ctx, scene.CellPath(4)))

	// Then: the duplicate click was a no-op
	player, err = s.Client.GetCurrentPlayer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "O", player)
}

func TestRemote_PressKeyRestarts(t *testing.T) {
	ctx, s := suite.New(t)

	// Given: one move on the board
	_, err := s.Client.MakeMove(ctx, 4)
	require.NoError(t, err)

	// When: the driver presses the restart key
	require.NoError(t, s.Client.PressKey(ctx, "r"))

	// Then: the board is empty again
	board, err := s.Client.GetBoardState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, board)
}

func TestRemote_NodeIntrospection(t *testing.T) {
	ctx, s := suite.New(t)

	// When: resolving the game node
	node, err := s.Client.GetNode(ctx, scene.GamePath)
	require.NoError(t, err)
	assert.Equal(t, "Game", node.Name)
	assert.Equal(t, scene.GamePath, node.Path)

	// Then: existence checks distinguish real and bogus paths
	exists, err := s.Client.NodeExists(ctx, scene.GamePath)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.Client.NodeExists(ctx, "/root/NonExistent")
	require.NoError(t, err)
	assert.False(t, exists)

	// Then: queries find all nine cells
	cells, err := s.Client.QueryNodes(ctx, "*Cell*")
	require.NoError(t, err)
	assert.Len(t, cells, 9)

	count, err := s.Client.CountNodes(ctx, "*Label*")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Then: resolving a bogus path is a distinct not-found outcome
	_, err = s.Client.GetNode(ctx, "/root/NonExistent")
	require.ErrorIs(t, err, apperror.ErrNodeNotFound)

	err = s.Client.Click(ctx, "/root/NonExistent")
	require.ErrorIs(t, err, apperror.ErrNodeNotFound)
}

func TestRemote_WaitEvent(t *testing.T) {
	t.Run("Buffered notification resolves a later wait", func(t *testing.T) {
		ctx, s := suite.New(t)

		// Given: a move made before the driver waits
		_, err := s.Client.MakeMove(ctx, 0)
		require.NoError(t, err)

		// When: the driver waits for the turn change afterwards
		event, err := s.Client.WaitEvent(ctx, game.EventTurnChanged, time.Second)

		// Then: the buffered notification resolves the wait
		require.NoError(t, err)
		assert.Equal(t, game.Event{Kind: game.EventTurnChanged, Player: "O"}, event)
	})

	t.Run("Game end notification carries the result", func(t *testing.T) {
		ctx, s := suite.New(t)

		// Given: a full winning game
		for _, cell := range []int{0, 3, 1, 4, 2} {
			_, err := s.Client.MakeMove(ctx, cell)
			require.NoError(t, err)
		}

		// When: the driver waits for the game end
		event, err := s.Client.WaitEvent(ctx, game.EventGameEnded, time.Second)

		// Then: the result names the winner
		require.NoError(t, err)
		assert.Equal(t, game.Event{Kind: game.EventGameEnded, Result: "X"}, event)
	})

	t.Run("Wait fails with a timeout when nothing fires", func(t *testing.T) {
		ctx, s := suite.New(t)

		// When: waiting for a game end that never comes
		_, err := s.Client.WaitEvent(ctx, game.EventGameEnded, 50*time.Millisecond)

		// Then: the driver gets a timeout, not a hang
		require.ErrorIs(t, err, apperror.ErrWaitTimeout)

		// Then: the engine is untouched by the failed wait
		active, err := s.Client.IsGameActive(ctx)
		require.NoError(t, err)
		assert.True(t, active)
	})
}

func TestRemote_Screenshot(t *testing.T) {
	ctx, s := suite.New(t)

	// Given: some marks on the board
	_, err := s.Client.MakeMove(ctx, 0)
	require.NoError(t, err)
	_, err = s.Client.MakeMove(ctx, 4)
	require.NoError(t, err)

	// When: capturing a screenshot remotely
	png, err := s.Client.Screenshot(ctx)

	// Then: PNG bytes come back over the wire
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, png[:8])
}

func TestRemote_ReloadScene(t *testing.T) {
	ctx, s := suite.New(t)

	// Given: a move on the board
	_, err := s.Client.MakeMove(ctx, 4)
	require.NoError(t, err)

	// When: the scene is reloaded
	require.NoError(t, s.Client.ReloadScene(ctx))

	// Then: the session is fresh
	board, err := s.Client.GetBoardState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "", "", "", "", "", "", "", ""}, board)
}

func TestRemote_UnknownCommand(t *testing.T) {
	ctx, s := suite.New(t)

	// When: an unsupported command is issued
	err := s.Client.Call(ctx, "fly_to_the_moon", nil, nil)

	// Then: the server answers with a clean unknown-command failure
	require.ErrorIs(t, err, apperror.ErrUnknownCommand)

	// Then: the connection remains usable afterwards
	active, err := s.Client.IsGameActive(ctx)
	require.NoError(t, err)
	assert.True(t, active)
}
