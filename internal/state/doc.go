// Package state provides session, event, and task storage implementations.
package state

import "github.com/user/overseer/internal/types"

// Compile-time interface compliance checks.
var _ types.SessionStore = (*SessionStore)(nil)
var _ types.EventStore = (*EventStore)(nil)
var _ types.SessionStore = (*MemoryStore)(nil)
var _ types.EventStore = (*MemoryStore)(nil)
