package game

// EventKind identifies the notification emitted after an accepted move.
type EventKind string

const (
	EventTurnChanged EventKind = "turn_changed"
	EventGameEnded   EventKind = "game_ended"
)

// Result of a finished session: the winner's mark, or ResultDraw.
const ResultDraw = "Draw"

// Event is delivered synchronously to every subscriber after an accepted
// move. Exactly one event is emitted per successful MakeMove.
type Event struct {
	Kind EventKind `json:"event"`
	// Player holds the mark whose turn it now is (turn_changed only).
	Player string `json:"player,omitempty"`
	// Result holds "X", "O" or "Draw" (game_ended only).
	Result string `json:"result,omitempty"`
}

type listener struct {
	id int
	fn func(Event)
}

// Subscribe registers fn for every future event. The returned func
// removes the subscription; calling it twice is harmless.
func (that *Engine) Subscribe(fn func(Event)) func() {
	that.nextListenerID++
	id := that.nextListenerID
	that.listeners = append(that.listeners, listener{id: id, fn: fn})

	return func() {
		for i, l := range that.listeners {
			if l.id == id {
				that.listeners = append(that.listeners[:i], that.listeners[i+1:]...)
				return
			}
		}
	}
}

func (that *Engine) emit(event Event) {
	for _, l := range that.listeners {
		l.fn(event)
	}
}
