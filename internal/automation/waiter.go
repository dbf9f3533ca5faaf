package automation

import (
	"context"
	"time"

	"github.com/playtest-dev/tictactoe-automation/internal/apperror"
	"github.com/playtest-dev/tictactoe-automation/internal/game"
)

// watcherBuffer bounds how many undelivered events a watcher can hold, so
// a driver that registers early and waits late never loses notifications.
const watcherBuffer = 16

// Watcher is a cancellable wait primitive: it buffers matching engine
// events from the moment it is created until Close. Register a watcher
// before issuing the command expected to fire the event, then Await.
type Watcher struct {
	events      chan game.Event
	unsubscribe func()
	done        func()
}

// Watch registers a watcher for one event kind. The caller must Close it.
func (that *Surface) Watch(kind game.EventKind) *Watcher {
	watcher := &Watcher{
		events: make(chan game.Event, watcherBuffer),
	}

	watcher.unsubscribe = that.Subscribe(func(event game.Event) {
		if event.Kind != kind {
			return
		}

		select {
		case watcher.events <- event:
		default:
			// Drop when the driver is hopelessly behind; the wait
			// still resolves from the buffered backlog.
		}
	})

	if that.metrics != nil {
		that.metrics.ActiveWatchers.Inc()
		watcher.done = that.metrics.ActiveWatchers.Dec
	}

	return watcher
}

// Await blocks until a matching event arrives, the timeout elapses, or
// ctx is canceled. Timeout and cancellation leave engine state untouched.
func (that *Watcher) Await(ctx context.Context, timeout time.Duration) (game.Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-that.events:
		return event, nil
	case <-timer.C:
		return game.Event{}, apperror.ErrWaitTimeout
	case <-ctx.Done():
		return game.Event{}, apperror.ErrWaitCanceled
	}
}

// Close releases the watcher. Safe to call more than once.
func (that *Watcher) Close() {
	if that.unsubscribe != nil {
		that.unsubscribe()
		that.unsubscribe = nil

		if that.done != nil {
			that.done()
		}
	}
}

// WaitUntil resolves once cond reports true. The condition is evaluated
// immediately and again after every engine event, so no polling loop
// spins between state changes.
func (that *Surface) WaitUntil(ctx context.Context, timeout time.Duration, cond func() bool) error {
	changed := make(chan struct{}, 1)

	unsubscribe := that.Subscribe(func(game.Event) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if cond() {
			return nil
		}

		select {
		case <-changed:
		case <-timer.C:
			return apperror.ErrWaitTimeout
		case <-ctx.Done():
			return apperror.ErrWaitCanceled
		}
	}
}
