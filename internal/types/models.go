// internal/types/models.go
package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Role values used on events. The runtime only ever authors these two.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Session is one persistent conversation, identified by the
// (app, user, session) triple. The event log itself lives in the
// EventStore, keyed by the session's ID.
type Session struct {
	ID        SessionID         `json:"id"`
	App       string            `json:"app"`
	UserID    string            `json:"user_id"`
	Name      string            `json:"name"`
	State     map[string]string `json:"state,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Key returns the composite app:user:session key for this session.
func (s *Session) Key() SessionKey {
	return NewSessionKey(s.App, s.UserID, s.Name)
}

// Event is one immutable, appended unit of conversation history.
// Seq is assigned by the event store on append, starting at 1.
type Event struct {
	ID        EventID   `json:"id"`
	SessionID SessionID `json:"session_id"`
	RunID     RunID     `json:"run_id,omitempty"`
	Seq       int64     `json:"seq"`
	Role      string    `json:"role"`
	At        time.Time `json:"at"`
	Parts     []Part    `json:"parts"`
}

// Part is a fragment of event content: plain text, a tool call, or both.
type Part struct {
	Text     string    `json:"text,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// ToolCall describes a function invocation requested by the model.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// NewTextEvent creates an event carrying a single text part.
func NewTextEvent(sessionID SessionID, runID RunID, role, text string) *Event {
	return &Event{
		ID:        NewEventID(),
		SessionID: sessionID,
		RunID:     runID,
		Role:      role,
		At:        time.Now(),
		Parts:     []Part{{Text: text}},
	}
}

// Text concatenates the text of all parts.
func (e *Event) Text() string {
	var b strings.Builder
	for _, p := range e.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
