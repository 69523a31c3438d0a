// internal/monitor/agent.go
package monitor

import (
	"context"
	"fmt"
	"strings"

	"github.com/user/overseer/internal/transcript"
	"github.com/user/overseer/internal/types"
)

// Agent delegates analysis to a secondary runtime: new events are rendered
// as a transcript excerpt, submitted as a turn on the analyst's own session,
// and the reply is scanned for decision keywords. The secondary runtime's
// session is independent of the watched one, so its turns never mix into
// the monitored conversation.
type Agent struct {
	runtime types.Runtime
	builder *transcript.Builder

	// Analyst session identity on the secondary runtime.
	App     string
	UserID  string
	Session string

	// DecisionWords trigger an intervention when present in the analyst's
	// reply. Defaults to ["intervene", "issue"].
	DecisionWords []string
	// Prefix is prepended to the injected insight.
	Prefix string
	// MaxInsight caps the length of the injected insight text.
	MaxInsight int
}

// NewAgent creates a secondary-agent analyzer over the given runtime.
func NewAgent(rt types.Runtime, builder *transcript.Builder, app, user, session string) *Agent {
	return &Agent{
		runtime:       rt,
		builder:       builder,
		App:           app,
		UserID:        user,
		Session:       session,
		DecisionWords: []string{"intervene", "issue"},
		Prefix:        "[Monitor Insight] ",
		MaxInsight:    200,
	}
}

// Analyze implements Analyzer. The nested turn is awaited to completion
// before the watcher's loop proceeds.
func (a *Agent) Analyze(ctx context.Context, newEvents []*types.Event, _ *types.Session) (string, error) {
	excerpt := a.builder.Render(newEvents)
	if excerpt == "" {
		return "", nil
	}

	prompt := fmt.Sprintf("Analyze this conversation excerpt:\n\n%s\n\nShould I intervene or provide feedback?", excerpt)

	stream, err := a.runtime.Run(ctx, a.App, a.UserID, a.Session, prompt)
	if err != nil {
		return "", fmt.Errorf("analyst turn: %w", err)
	}

	var reply strings.Builder
	for event := range stream {
		if event.Role == types.RoleModel {
			reply.WriteString(event.Text())
		}
	}

	analysis := reply.String()
	lower := strings.ToLower(analysis)
	for _, word := range a.DecisionWords {
		if strings.Contains(lower, word) {
			return a.Prefix + truncate(analysis, a.MaxInsight), nil
		}
	}
	return "", nil
}
