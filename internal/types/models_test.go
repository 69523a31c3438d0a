// internal/types/models_test.go
package types

import (
	"encoding/json"
	"testing"
)

func TestEventText(t *testing.T) {
	ev := &Event{
		Parts: []Part{
			{Text: "hello "},
			{ToolCall: &ToolCall{Name: "search"}},
			{Text: "world"},
		},
	}
	if got := ev.Text(); got != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", got)
	}
}

func TestNewTextEvent(t *testing.T) {
	sid := NewSessionID()
	rid := NewRunID()
	ev := NewTextEvent(sid, rid, RoleUser, "What is 2+2?")

	if ev.ID == "" {
		t.Error("expected event ID to be assigned")
	}
	if ev.SessionID != sid {
		t.Errorf("expected session %s, got %s", sid, ev.SessionID)
	}
	if ev.Role != RoleUser {
		t.Errorf("expected role %q, got %q", RoleUser, ev.Role)
	}
	if ev.Text() != "What is 2+2?" {
		t.Errorf("unexpected text: %q", ev.Text())
	}
}

func TestEventRoundTrip(t *testing.T) {
	ev := NewTextEvent(NewSessionID(), NewRunID(), RoleModel, "4")
	ev.Seq = 3
	ev.Parts = append(ev.Parts, Part{ToolCall: &ToolCall{
		Name:      "calculator",
		Arguments: json.RawMessage(`{"expr":"2+2"}`),
	}})

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Seq != 3 || got.Role != RoleModel {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.Parts[1].ToolCall == nil || got.Parts[1].ToolCall.Name != "calculator" {
		t.Errorf("round trip lost tool call: %+v", got.Parts)
	}
}

func TestSessionKeyMethod(t *testing.T) {
	s := &Session{App: "demo_app", UserID: "demo_user", Name: "demo_session"}
	if s.Key() != NewSessionKey("demo_app", "demo_user", "demo_session") {
		t.Errorf("unexpected key: %s", s.Key())
	}
}
