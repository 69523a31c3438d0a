// internal/monitor/controller.go
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/user/overseer/internal/notify"
	"github.com/user/overseer/internal/types"
)

// Controller drives conversational turns and performs injections. After
// each submitted turn it consumes at most one pending message from the
// hand-off slot and submits it as a new turn on the same session, so the
// injected message and its reply become ordinary events in the log.
// A total intervention cap guards against injection feedback loops.
type Controller struct {
	runtime types.Runtime
	slot    *Slot

	app     string
	user    string
	session string

	notifier         notify.Notifier
	maxInterventions int
	onEvent          func(*types.Event)

	mu            sync.Mutex
	interventions int
}

// ControllerOption configures optional Controller behavior.
type ControllerOption func(*Controller)

// WithNotifier mirrors every injected message to the given notifier.
func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

// WithMaxInterventions caps the total number of injected messages.
// Defaults to 2; zero or negative disables injection entirely.
func WithMaxInterventions(n int) ControllerOption {
	return func(c *Controller) { c.maxInterventions = n }
}

// WithOnEvent registers a callback invoked for every event streamed back
// from a submitted turn.
func WithOnEvent(fn func(*types.Event)) ControllerOption {
	return func(c *Controller) { c.onEvent = fn }
}

// NewController creates a Controller bound to one session.
func NewController(rt types.Runtime, slot *Slot, app, user, session string, opts ...ControllerOption) *Controller {
	c := &Controller{
		runtime:          rt,
		slot:             slot,
		app:              app,
		user:             user,
		session:          session,
		maxInterventions: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit runs one turn on the controller's session and drains its streamed
// response to completion.
func (c *Controller) Submit(ctx context.Context, message string) error {
	stream, err := c.runtime.Run(ctx, c.app, c.user, c.session, message)
	if err != nil {
		return fmt.Errorf("submit turn: %w", err)
	}
	for event := range stream {
		if c.onEvent != nil {
			c.onEvent(event)
		}
	}
	return nil
}

// CheckInjections is the per-turn check point. If the slot holds a pending
// message and the intervention cap is not exhausted, the message is
// submitted as a new turn and its response drained. A pending message
// found after the cap is exhausted is dropped. Returns whether an
// injection happened.
func (c *Controller) CheckInjections(ctx context.Context) (bool, error) {
	message, ok := c.slot.Take()
	if !ok {
		return false, nil
	}

	// The cap check and increment must be atomic: the controller can be
	// driven concurrently, from an interactive loop and scheduled check-ins.
	c.mu.Lock()
	if c.interventions >= c.maxInterventions {
		c.mu.Unlock()
		slog.Warn("intervention cap reached, dropping message", "session", c.session, "cap", c.maxInterventions)
		return false, nil
	}
	c.interventions++
	n := c.interventions
	c.mu.Unlock()

	slog.Info("injecting monitor message", "session", c.session, "intervention", n)
	if c.notifier != nil {
		if err := c.notifier.Alert(ctx, message); err != nil {
			slog.Error("notify alert", "error", err)
		}
	}

	if err := c.Submit(ctx, message); err != nil {
		return false, err
	}
	return true, nil
}

// Converse submits a user turn and then runs the injection check point.
func (c *Controller) Converse(ctx context.Context, message string) error {
	if err := c.Submit(ctx, message); err != nil {
		return err
	}
	_, err := c.CheckInjections(ctx)
	return err
}

// Interventions returns how many messages have been injected so far.
func (c *Controller) Interventions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interventions
}
