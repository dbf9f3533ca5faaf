package scene

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/playtest-dev/tictactoe-automation/internal/game"
)

// Node paths exposed to drivers. They mirror the layout of the original
// game scene so existing harness scripts keep working.
const (
	GamePath          = "/root/Game"
	StatusLabelPath   = "/root/Game/VBoxContainer/StatusLabel"
	RestartButtonPath = "/root/Game/VBoxContainer/RestartButton"
	cellPathFormat    = "/root/Game/VBoxContainer/GameBoard/GridContainer/Cell%d"
)

// CellPath returns the node path of one board cell button.
func CellPath(cell int) string {
	return fmt.Sprintf(cellPathFormat, cell)
}

// GameScene is the display layer: a node tree whose labels mirror the
// engine state. It subscribes to engine events instead of living inside
// the move handler, so the rules stay display-free.
type GameScene struct {
	*Tree

	logger *slog.Logger
	engine *game.Engine

	status *Node
	cells  [9]*Node
}

// NewGameScene builds the node tree, wires cell and restart buttons to
// the engine and registers the display subscriber.
func NewGameScene(logger *slog.Logger, engine *game.Engine) *GameScene {
	scene := &GameScene{
		logger: logger.With("component", "scene"),
		engine: engine,
	}

	root := newNode("root", "Window")
	gameNode := root.addChild(newNode("Game", "Control"))
	box := gameNode.addChild(newNode("VBoxContainer", "VBoxContainer"))
	board := box.addChild(newNode("GameBoard", "PanelContainer"))
	grid := board.addChild(newNode("GridContainer", "GridContainer"))

	for i := 0; i < 9; i++ {
		cell := i
		button := grid.addChild(newNode(fmt.Sprintf("Cell%d", cell), "Button"))
		button.setProperty("text", "")
		button.onClick = func() { scene.clickCell(cell) }
		scene.cells[cell] = button
	}

	scene.status = box.addChild(newNode("StatusLabel", "Label"))
	restart := box.addChild(newNode("RestartButton", "Button"))
	restart.setProperty("text", "Restart")
	restart.onClick = scene.Restart

	scene.Tree = newTree(root)

	engine.Subscribe(scene.onEvent)
	scene.refresh()

	return scene
}

// Click simulates a pointer press on the node at path. Clicks that hit a
// node without an action, an occupied cell, or an inactive board are
// accepted as no-ops; only an unresolvable path is an error.
func (that *GameScene) Click(nodePath string) error {
	node, err := that.Resolve(nodePath)
	if err != nil {
		return err
	}

	if node.onClick != nil {
		node.onClick()
	}

	return nil
}

// PressKey simulates a key press. "r" restarts the game; every other key
// is ignored.
func (that *GameScene) PressKey(key string) {
	if strings.EqualFold(key, "r") {
		that.Restart()
	}
}

// Restart resets the engine and redraws the scene.
func (that *GameScene) Restart() {
	that.engine.Restart()
	that.refresh()
}

func (that *GameScene) clickCell(cell int) {
	// Invalid clicks are deliberate no-ops: the driver may hammer an
	// occupied cell or a finished board without failing the run.
	if err := that.engine.MakeMove(cell); err != nil {
		that.logger.Debug("click ignored", "cell", cell, "reason", err)
	}
}

func (that *GameScene) onEvent(event game.Event) {
	switch event.Kind {
	case game.EventTurnChanged:
		that.status.setProperty("text", fmt.Sprintf("%s's Turn", event.Player))
	case game.EventGameEnded:
		if event.Result == game.ResultDraw {
			that.status.setProperty("text", "Draw!")
		} else {
			that.status.setProperty("text", fmt.Sprintf("%s Wins!", event.Result))
		}
	}

	that.syncCells()
}

// refresh redraws every display property from the engine, used on
// construction and restart where no event fires.
func (that *GameScene) refresh() {
	that.status.setProperty("text", fmt.Sprintf("%s's Turn", that.engine.CurrentPlayer()))
	that.syncCells()
}

func (that *GameScene) syncCells() {
	for i, mark := range that.engine.BoardState() {
		that.cells[i].setProperty("text", mark)
	}
}

// GetProperty resolves a node and reads one of its display properties.
func (that *GameScene) GetProperty(nodePath, name string) (any, error) {
	node, err := that.Resolve(nodePath)
	if err != nil {
		return nil, err
	}

	return node.Property(name)
}
