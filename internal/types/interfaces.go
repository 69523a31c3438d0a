// internal/types/interfaces.go
package types

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by SessionStore.Get when no session exists
// for the requested triple. Watchers treat it as a normal exit signal, not
// a failure.
var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	Create(ctx context.Context, app, user, session string) (*Session, error)
	Get(ctx context.Context, app, user, session string) (*Session, error)
	Delete(ctx context.Context, app, user, session string) error
	List(ctx context.Context) ([]*Session, error)
}

type EventStore interface {
	Append(ctx context.Context, event *Event) error
	// Since returns all events with Seq > after, in order.
	Since(ctx context.Context, sessionID SessionID, after int64) ([]*Event, error)
	Tail(ctx context.Context, sessionID SessionID, limit int) ([]*Event, error)
	Count(ctx context.Context, sessionID SessionID) (int64, error)
}

// Runtime executes one conversational turn against a session. The returned
// channel is a finite stream of the events appended by this turn (the user
// event followed by the model's reply); it is closed when the turn completes.
// All appends for one session go through the runtime, which serializes them.
type Runtime interface {
	Run(ctx context.Context, app, user, session, message string) (<-chan *Event, error)
}
