// internal/runtime/runtime.go
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/user/overseer/internal/types"
	"github.com/user/overseer/pkg/llm"
)

// Runtime executes conversational turns against sessions. Turns on the same
// session are processed strictly in order through a per-session lane, so all
// appends to one session's event log are serialized; a global semaphore
// limits concurrency across sessions.
type Runtime struct {
	provider    llm.Provider
	instruction string
	sessions    types.SessionStore
	events      types.EventStore
	retry       *RetryPolicy
	history     int

	lanes map[types.SessionID]chan *turn
	sem   *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// turn is one queued submission against a session.
type turn struct {
	ctx     context.Context
	session *types.Session
	runID   types.RunID
	message string
	out     chan *types.Event
}

// Option configures optional Runtime behavior.
type Option func(*Runtime)

// WithHistory sets how many trailing events are replayed to the model on
// each turn. Defaults to 100.
func WithHistory(n int) Option {
	return func(r *Runtime) { r.history = n }
}

// WithRetry overrides the retry policy for provider calls.
func WithRetry(p *RetryPolicy) Option {
	return func(r *Runtime) { r.retry = p }
}

// New creates a Runtime with the given provider, system instruction, and
// stores. maxConcurrent bounds the number of turns processed simultaneously
// across all sessions.
func New(provider llm.Provider, instruction string, sessions types.SessionStore, events types.EventStore, maxConcurrent int64, opts ...Option) *Runtime {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	r := &Runtime{
		provider:    provider,
		instruction: instruction,
		sessions:    sessions,
		events:      events,
		retry:       DefaultRetryPolicy(),
		history:     100,
		lanes:       make(map[types.SessionID]chan *turn),
		sem:         semaphore.NewWeighted(maxConcurrent),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start initialises the runtime's context. Must be called before Run.
func (r *Runtime) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
}

// Stop cancels the runtime context, closes all lanes, and waits for
// in-flight turns to finish.
func (r *Runtime) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Lock()
	for _, lane := range r.lanes {
		close(lane)
	}
	r.lanes = make(map[types.SessionID]chan *turn)
	r.mu.Unlock()
	r.wg.Wait()
}

// Run submits one turn on the session identified by the (app, user, session)
// triple. The returned channel streams the events this turn appends (the
// user event, then the model's reply) and is closed when the turn completes.
func (r *Runtime) Run(ctx context.Context, app, user, session, message string) (<-chan *types.Event, error) {
	sess, err := r.sessions.Get(ctx, app, user, session)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}

	t := &turn{
		ctx:     ctx,
		session: sess,
		runID:   types.NewRunID(),
		message: message,
		out:     make(chan *types.Event, 8),
	}

	// Hold the lock across the send so Stop cannot close the lane between
	// the lookup and the send.
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ctx.Err() != nil {
		return nil, fmt.Errorf("runtime stopped")
	}

	lane, exists := r.lanes[sess.ID]
	if !exists {
		lane = make(chan *turn, 100)
		r.lanes[sess.ID] = lane
		r.wg.Add(1)
		go r.processLane(lane)
	}

	select {
	case lane <- t:
		return t.out, nil
	default:
		return nil, fmt.Errorf("turn queue full for session %s", sess.ID)
	}
}

// processLane drains a single session lane, acquiring a semaphore slot
// before running each turn synchronously. Strict FIFO within a session;
// the semaphore limits cross-session parallelism.
func (r *Runtime) processLane(lane chan *turn) {
	defer r.wg.Done()
	for {
		select {
		case t, ok := <-lane:
			if !ok {
				return
			}
			if err := r.sem.Acquire(r.ctx, 1); err != nil {
				close(t.out)
				return
			}
			r.processTurn(t)
			r.sem.Release(1)
		case <-r.ctx.Done():
			return
		}
	}
}

// processTurn records the user event, calls the model with the session's
// trailing history, and records the reply. Events are emitted on the turn's
// output channel as they are appended.
func (r *Runtime) processTurn(t *turn) {
	defer close(t.out)
	ctx := t.ctx

	userEvent := types.NewTextEvent(t.session.ID, t.runID, types.RoleUser, t.message)
	if err := r.events.Append(ctx, userEvent); err != nil {
		slog.Error("record user message", "run_id", string(t.runID), "session", string(t.session.Key()), "error", err)
		return
	}
	if !r.emit(ctx, t.out, userEvent) {
		return
	}

	history, err := r.events.Tail(ctx, t.session.ID, r.history)
	if err != nil {
		slog.Error("load history", "run_id", string(t.runID), "error", err)
		return
	}

	messages := make([]llm.Message, 0, len(history)+1)
	if r.instruction != "" {
		messages = append(messages, llm.Message{Role: "system", Content: r.instruction})
	}
	for _, event := range history {
		text := event.Text()
		if text == "" {
			continue
		}
		role := "user"
		if event.Role == types.RoleModel {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: text})
	}

	var resp *llm.Response
	err = r.retry.Execute(ctx, func() error {
		var callErr error
		resp, callErr = r.provider.Complete(ctx, messages)
		return callErr
	})
	if err != nil {
		slog.Error("model call failed", "run_id", string(t.runID), "session", string(t.session.Key()), "error", err)
		return
	}

	parts := []types.Part{{Text: resp.Content}}
	for _, tc := range resp.ToolCalls {
		parts = append(parts, types.Part{ToolCall: &types.ToolCall{
			Name:      tc.Name,
			Arguments: tc.Arguments,
		}})
	}
	modelEvent := &types.Event{
		ID:        types.NewEventID(),
		SessionID: t.session.ID,
		RunID:     t.runID,
		Role:      types.RoleModel,
		At:        time.Now(),
		Parts:     parts,
	}
	if err := r.events.Append(ctx, modelEvent); err != nil {
		slog.Error("record model reply", "run_id", string(t.runID), "error", err)
		return
	}
	r.emit(ctx, t.out, modelEvent)
}

// emit sends an event to the consumer, giving up if the turn's context is
// cancelled. Returns false when the send was abandoned.
func (r *Runtime) emit(ctx context.Context, out chan *types.Event, event *types.Event) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
