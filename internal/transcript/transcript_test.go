// internal/transcript/transcript_test.go
package transcript

import (
	"strings"
	"testing"

	"github.com/user/overseer/internal/types"
)

func textEvent(role, text string) *types.Event {
	return types.NewTextEvent(types.NewSessionID(), "", role, text)
}

func TestRenderBasic(t *testing.T) {
	b, err := New("gpt-4o-mini", 0)
	if err != nil {
		t.Fatal(err)
	}

	out := b.Render([]*types.Event{
		textEvent(types.RoleUser, "How do I set up authentication?"),
		textEvent(types.RoleModel, "Start by creating an API key."),
	})

	want := "user: How do I set up authentication?\nmodel: Start by creating an API key."
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestRenderSkipsEmptyEvents(t *testing.T) {
	b, err := New("gpt-4o-mini", 0)
	if err != nil {
		t.Fatal(err)
	}

	ev := &types.Event{Role: types.RoleModel, Parts: []types.Part{{ToolCall: &types.ToolCall{Name: "search"}}}}
	out := b.Render([]*types.Event{ev})
	if out != "" {
		t.Errorf("expected empty transcript, got %q", out)
	}
}

func TestRenderDropsOldestOverBudget(t *testing.T) {
	b, err := New("gpt-4o-mini", 20)
	if err != nil {
		t.Fatal(err)
	}

	events := []*types.Event{
		textEvent(types.RoleUser, strings.Repeat("old padding text ", 10)),
		textEvent(types.RoleModel, "recent reply"),
	}
	out := b.Render(events)

	if !strings.Contains(out, "recent reply") {
		t.Errorf("expected newest line to survive, got %q", out)
	}
	if strings.Contains(out, "old padding") {
		t.Errorf("expected oldest line to be dropped, got %q", out)
	}
}

func TestRenderKeepsAtLeastOneLine(t *testing.T) {
	b, err := New("gpt-4o-mini", 1)
	if err != nil {
		t.Fatal(err)
	}

	out := b.Render([]*types.Event{textEvent(types.RoleUser, "a fairly long line that exceeds one token")})
	if out == "" {
		t.Error("expected at least one line even when over budget")
	}
}
