package game

import (
	"fmt"
	"log/slog"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
)

const (
	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""

	// tracePrefix tags every engine log line so CI scrapers can grep
	// game activity out of mixed output.
	tracePrefix = "[TicTacToe]"
)

// WinLines are the 8 winning index triples, checked in fixed order:
// rows, then columns, then diagonals.
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Engine owns one game session: board, turn order and terminal-condition
// detection. It does no I/O beyond trace logging and is not safe for
// concurrent use; callers serialize access.
type Engine struct {
	logger *slog.Logger

	board       [9]string
	turn        string
	winner      string
	active      bool
	movesPlayed int

	listeners      []listener
	nextListenerID int
}

// New returns a fresh engine in the initial state: empty board, X to
// move, session active. No event is emitted on construction.
func New(logger *slog.Logger) *Engine {
	engine := &Engine{
		logger: logger.With("component", "game"),
	}
	engine.initialize()

	return engine
}

func (that *Engine) initialize() {
	that.board = [9]string{}
	that.turn = PlayerX
	that.winner = ""
	that.active = true
	that.movesPlayed = 0

	that.logger.Info(tracePrefix + " Game initialized, X goes first")
}

// MakeMove places the current player's mark on cell. Preconditions are
// checked in order: session active, cell in range, cell empty. A failed
// precondition returns a sentinel error and leaves state untouched.
func (that *Engine) MakeMove(cell int) error {
	if !that.active {
		return apperror.ErrGameNotActive
	}

	if cell < 0 || cell >= len(that.board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, cell)
	}

	if that.board[cell] != EmptyCell {
		return fmt.Errorf("%w: %d", apperror.ErrCellOccupied, cell)
	}

	player := that.turn
	that.board[cell] = player
	that.movesPlayed++

	that.logger.Info(fmt.Sprintf("%s %s played cell %d", tracePrefix, player, cell))

	// Win detection runs before the full-board check so a move that
	// completes a line on the ninth cell counts as a win, not a draw.
	if winner := that.findWinner(); winner != EmptyCell {
		that.winner = winner
		that.active = false
		that.logger.Info(fmt.Sprintf("%s Game over: %s wins", tracePrefix, winner))
		that.emit(Event{Kind: EventGameEnded, Result: winner})

		return nil
	}

	if that.movesPlayed == len(that.board) {
		that.active = false
		that.logger.Info(tracePrefix + " Game over: draw")
		that.emit(Event{Kind: EventGameEnded, Result: ResultDraw})

		return nil
	}

	that.turn = toggleMark(player)
	that.emit(Event{Kind: EventTurnChanged, Player: that.turn})

	return nil
}

// Restart reinitializes the session in place, so references held by
// drivers stay valid. Safe to call whether the session is active or not.
func (that *Engine) Restart() {
	that.logger.Info(tracePrefix + " Game restarted")
	that.initialize()
}

// BoardState returns a copy of the board as 9 strings in {"", "X", "O"},
// row-major. The live array is never exposed.
func (that *Engine) BoardState() []string {
	state := make([]string, len(that.board))
	copy(state, that.board[:])

	return state
}

func (that *Engine) IsActive() bool {
	return that.active
}

func (that *Engine) CurrentPlayer() string {
	return that.turn
}

// Winner reports the winning mark, or "" while the session is active or
// after a draw.
func (that *Engine) Winner() string {
	return that.winner
}

func (that *Engine) MovesPlayed() int {
	return that.movesPlayed
}

func (that *Engine) findWinner() string {
	for _, line := range WinLines {
		a, b, c := that.board[line[0]], that.board[line[1]], that.board[line[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func toggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}

	return PlayerX
}
