// internal/monitor/watcher.go
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/overseer/internal/types"
)

// Watcher polls a session's event log in the background and feeds newly
// appended events to an Analyzer. When the analyzer returns a message, the
// watcher places it on the hand-off slot; it never submits turns itself.
// Only the component driving the conversation authors new turns.
type Watcher struct {
	id       types.WatcherID
	sessions types.SessionStore
	events   types.EventStore
	analyzer Analyzer
	slot     *Slot

	app     string
	user    string
	session string

	interval time.Duration
	cursor   atomic.Int64

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for the session identified by the
// (app, user, session) triple. Flagged messages are offered to slot.
func NewWatcher(sessions types.SessionStore, events types.EventStore, app, user, session string, interval time.Duration, analyzer Analyzer, slot *Slot) *Watcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		id:       types.NewWatcherID(),
		sessions: sessions,
		events:   events,
		analyzer: analyzer,
		slot:     slot,
		app:      app,
		user:     user,
		session:  session,
		interval: interval,
	}
}

// Start launches the background polling loop. It returns immediately.
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	go w.loop(ctx)
}

// Stop cancels the polling loop and waits for it to finish. It is
// idempotent and safe to call after the watcher has already exited on its
// own (for example when the session was deleted).
func (w *Watcher) Stop() {
	if w.done == nil {
		return
	}
	w.stopOnce.Do(func() {
		w.cancel()
	})
	<-w.done
}

// Cursor returns the number of events already delivered to the analyzer.
// It is non-decreasing and never exceeds the store's event count at the
// time it advanced.
func (w *Watcher) Cursor() int64 {
	return w.cursor.Load()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if exit := w.poll(ctx); exit {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// poll runs one observation cycle. It returns true when the watcher should
// exit (session gone or context cancelled). Any fetch or analysis error is
// logged and absorbed; a bad cycle never terminates the watcher.
func (w *Watcher) poll(ctx context.Context) bool {
	session, err := w.sessions.Get(ctx, w.app, w.user, w.session)
	if err != nil {
		if errors.Is(err, types.ErrSessionNotFound) {
			slog.Info("watched session gone, stopping", "watcher", string(w.id), "session", w.session)
			return true
		}
		if ctx.Err() != nil {
			return true
		}
		slog.Error("fetch session", "watcher", string(w.id), "error", err)
		return false
	}

	count, err := w.events.Count(ctx, session.ID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Error("count events", "watcher", string(w.id), "error", err)
		return false
	}

	cursor := w.cursor.Load()
	if count <= cursor {
		return false
	}

	newEvents, err := w.events.Since(ctx, session.ID, cursor)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Error("fetch new events", "watcher", string(w.id), "error", err)
		return false
	}
	if len(newEvents) == 0 {
		return false
	}

	// Advance the cursor before analyzing: each event reaches the analyzer
	// at most once, even if analysis is slow or fails.
	w.cursor.Store(cursor + int64(len(newEvents)))

	message, err := w.analyzer.Analyze(ctx, newEvents, session)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Error("analyze events", "watcher", string(w.id), "error", err)
		return false
	}

	if message != "" && w.slot != nil {
		w.slot.Offer(message)
		slog.Info("monitor flagged message", "watcher", string(w.id), "session", w.session)
	}
	return false
}
