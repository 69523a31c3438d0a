// internal/monitor/controller_test.go
package monitor

import (
	"context"
	"sync"
	"testing"

	"github.com/user/overseer/internal/types"
)

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *recordingNotifier) Alert(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, text)
	return nil
}

func TestControllerInjectsPendingMessage(t *testing.T) {
	rt := &fakeRuntime{reply: "understood"}
	slot := NewSlot()
	notifier := &recordingNotifier{}
	c := NewController(rt, slot, "app", "u", "s", WithNotifier(notifier))
	ctx := context.Background()

	if err := c.Submit(ctx, "turn one"); err != nil {
		t.Fatal(err)
	}
	slot.Offer("monitor says slow down")

	injected, err := c.CheckInjections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !injected {
		t.Fatal("expected injection")
	}

	// The injected message is the next turn after turn one.
	messages := rt.messages()
	if len(messages) != 2 || messages[1] != "monitor says slow down" {
		t.Errorf("unexpected turn order: %v", messages)
	}
	if c.Interventions() != 1 {
		t.Errorf("expected 1 intervention, got %d", c.Interventions())
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0] != "monitor says slow down" {
		t.Errorf("expected alert for injection, got %v", notifier.alerts)
	}
}

func TestControllerNoPendingMessage(t *testing.T) {
	rt := &fakeRuntime{reply: "ok"}
	c := NewController(rt, NewSlot(), "app", "u", "s")

	injected, err := c.CheckInjections(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if injected {
		t.Error("expected no injection from empty slot")
	}
	if len(rt.messages()) != 0 {
		t.Errorf("expected no turns, got %v", rt.messages())
	}
}

func TestControllerCapEnforced(t *testing.T) {
	rt := &fakeRuntime{reply: "ok"}
	slot := NewSlot()
	c := NewController(rt, slot, "app", "u", "s", WithMaxInterventions(2))
	ctx := context.Background()

	// Five trigger firings, but only two may ever be injected.
	for i := 0; i < 5; i++ {
		slot.Offer("warning")
		if _, err := c.CheckInjections(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if c.Interventions() != 2 {
		t.Errorf("expected cap of 2 interventions, got %d", c.Interventions())
	}
	if len(rt.messages()) != 2 {
		t.Errorf("expected exactly 2 injected turns, got %d", len(rt.messages()))
	}
	// Dropped messages are consumed, not left pending.
	if slot.Pending() {
		t.Error("expected slot drained after cap drop")
	}
}

func TestControllerAtMostOnePerCheckPoint(t *testing.T) {
	rt := &fakeRuntime{reply: "ok"}
	slot := NewSlot()
	c := NewController(rt, slot, "app", "u", "s", WithMaxInterventions(5))
	ctx := context.Background()

	slot.Offer("first")
	slot.Offer("second") // replaces first: single-slot, last wins

	injected, err := c.CheckInjections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !injected {
		t.Fatal("expected injection")
	}
	if messages := rt.messages(); len(messages) != 1 || messages[0] != "second" {
		t.Errorf("expected single last-wins injection, got %v", messages)
	}
}

func TestControllerConverseStreamsEvents(t *testing.T) {
	rt := &fakeRuntime{reply: "the answer"}
	slot := NewSlot()

	var seen []string
	c := NewController(rt, slot, "app", "u", "s", WithOnEvent(func(event *types.Event) {
		seen = append(seen, event.Role+":"+event.Text())
	}))

	if err := c.Converse(context.Background(), "question"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "user:question" || seen[1] != "model:the answer" {
		t.Errorf("unexpected streamed events: %v", seen)
	}
}

func TestControllerCapUnderConcurrentChecks(t *testing.T) {
	rt := &fakeRuntime{reply: "noted"}
	slot := NewSlot()
	c := NewController(rt, slot, "app", "u", "s", WithMaxInterventions(2))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				slot.Offer("monitor warning")
				if _, err := c.CheckInjections(ctx); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := c.Interventions(); got != 2 {
		t.Errorf("expected exactly 2 interventions, got %d", got)
	}
	if got := len(rt.messages()); got != 2 {
		t.Errorf("expected exactly 2 submitted turns, got %d", got)
	}
}
