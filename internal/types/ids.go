// internal/types/ids.go
package types

import (
	"strings"

	"github.com/google/uuid"
)

type SessionKey string
type SessionID string
type RunID string
type EventID string
type WatcherID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

func NewRunID() RunID {
	return RunID(uuid.New().String())
}

func NewEventID() EventID {
	return EventID(uuid.New().String())
}

func NewWatcherID() WatcherID {
	return WatcherID(uuid.New().String())
}

// NewSessionKey builds the composite key identifying one conversation:
// app:user:session.
func NewSessionKey(app, user, session string) SessionKey {
	return SessionKey(strings.Join([]string{app, user, session}, ":"))
}
