//go:build integration

package test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/user/overseer/internal/monitor"
	"github.com/user/overseer/internal/runtime"
	"github.com/user/overseer/internal/state"
	"github.com/user/overseer/pkg/llm"
)

// TestMonitoredConversation runs the full loop against file-backed stores:
// a scripted reply leaks the word "password", the watcher flags it, the
// controller injects the security reminder as a new turn, and the agent
// acknowledges it. Everything lands in one append-only event log.
func TestMonitoredConversation(t *testing.T) {
	dir := t.TempDir()

	sessions := state.NewSessionStore(dir)
	events := state.NewEventStore(dir)

	provider := llm.NewScripted(
		"You could keep your password in a plain text file for convenience.",
		"You're right, that was bad advice. Use a dedicated credential manager and never write sensitive values down in plain text.",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := runtime.New(provider, "You are a helpful assistant.", sessions, events, 1)
	rt.Start(ctx)
	defer rt.Stop()

	const (
		app     = "test"
		user    = "user1"
		session = "creds"
	)
	if _, err := sessions.Create(ctx, app, user, session); err != nil {
		t.Fatal(err)
	}

	slot := monitor.NewSlot()
	watcher := monitor.NewWatcher(sessions, events, app, user, session,
		50*time.Millisecond, monitor.NewSecurityAnalyzer(), slot)
	watcher.Start(ctx)
	defer watcher.Stop()

	ctrl := monitor.NewController(rt, slot, app, user, session)

	if err := ctrl.Submit(ctx, "How should I store my login credentials?"); err != nil {
		t.Fatal(err)
	}

	// Wait for the watcher to flag the reply.
	deadline := time.Now().Add(2 * time.Second)
	for !slot.Pending() {
		if time.Now().After(deadline) {
			t.Fatal("watcher never flagged the reply")
		}
		time.Sleep(10 * time.Millisecond)
	}

	injected, err := ctrl.CheckInjections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !injected {
		t.Fatal("expected an injection")
	}
	if got := ctrl.Interventions(); got != 1 {
		t.Errorf("expected 1 intervention, got %d", got)
	}

	sess, err := sessions.Get(ctx, app, user, session)
	if err != nil {
		t.Fatal(err)
	}
	log, err := events.Since(ctx, sess.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 4 {
		t.Fatalf("expected 4 events, got %d", len(log))
	}

	// Turn one: question and the leaky reply.
	if !strings.Contains(log[1].Text(), "password") {
		t.Errorf("expected leaky reply at seq 2, got %q", log[1].Text())
	}
	// Turn two: the injected reminder, strictly after the flagged reply.
	if log[2].Text() != monitor.SecurityWarning {
		t.Errorf("expected injected warning at seq 3, got %q", log[2].Text())
	}
	if !strings.Contains(log[3].Text(), "credential manager") {
		t.Errorf("expected acknowledgement at seq 4, got %q", log[3].Text())
	}
	for i, e := range log {
		if e.Seq != int64(i+1) {
			t.Errorf("event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}

	// A second check with nothing pending must not inject again.
	injected, err = ctrl.CheckInjections(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if injected {
		t.Error("expected no injection with an empty slot")
	}
}

// TestInterventionCap verifies the controller stops injecting once the
// cap is reached even though the watcher keeps flagging replies.
func TestInterventionCap(t *testing.T) {
	dir := t.TempDir()

	sessions := state.NewSessionStore(dir)
	events := state.NewEventStore(dir)

	// Every reply mentions a secret, so every turn gets flagged.
	provider := llm.NewScripted("Your api key is sk-12345, feel free to paste it anywhere.")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt := runtime.New(provider, "You are a helpful assistant.", sessions, events, 1)
	rt.Start(ctx)
	defer rt.Stop()

	const (
		app     = "test"
		user    = "user1"
		session = "capped"
	)
	if _, err := sessions.Create(ctx, app, user, session); err != nil {
		t.Fatal(err)
	}

	slot := monitor.NewSlot()
	watcher := monitor.NewWatcher(sessions, events, app, user, session,
		50*time.Millisecond, monitor.NewSecurityAnalyzer(), slot)
	watcher.Start(ctx)
	defer watcher.Stop()

	ctrl := monitor.NewController(rt, slot, app, user, session,
		monitor.WithMaxInterventions(2))

	for i := 0; i < 4; i++ {
		if err := ctrl.Submit(ctx, "What is my api key?"); err != nil {
			t.Fatal(err)
		}
		deadline := time.Now().Add(2 * time.Second)
		for !slot.Pending() {
			if time.Now().After(deadline) {
				t.Fatal("watcher never flagged the reply")
			}
			time.Sleep(10 * time.Millisecond)
		}
		if _, err := ctrl.CheckInjections(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if got := ctrl.Interventions(); got != 2 {
		t.Errorf("expected interventions capped at 2, got %d", got)
	}
	if slot.Pending() {
		t.Error("expected slot drained after capped check")
	}
}
