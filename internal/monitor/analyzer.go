// internal/monitor/analyzer.go
package monitor

import (
	"context"
	"log/slog"
	"strings"

	"github.com/user/overseer/internal/types"
)

// Analyzer inspects newly observed events and decides whether to intervene.
// A non-empty return value is a message destined to be injected into the
// conversation as a new user turn. Returning "" means no intervention.
type Analyzer interface {
	Analyze(ctx context.Context, newEvents []*types.Event, session *types.Session) (string, error)
}

// Observer logs text parts, tool-call names, and session state without ever
// intervening.
type Observer struct{}

// Analyze implements Analyzer. It always returns an empty message.
func (Observer) Analyze(_ context.Context, newEvents []*types.Event, session *types.Session) (string, error) {
	for _, event := range newEvents {
		for _, part := range event.Parts {
			if part.Text != "" {
				slog.Info("observed text", "role", event.Role, "text", truncate(part.Text, 100))
			}
			if part.ToolCall != nil {
				slog.Info("observed tool call", "role", event.Role, "tool", part.ToolCall.Name)
			}
		}
	}
	if len(session.State) > 0 {
		slog.Info("session state", "session", string(session.Key()), "state", session.State)
	}
	return "", nil
}

// Keyword scans the lowercased text of new events for trigger substrings
// and returns a canned warning on the first match.
type Keyword struct {
	// Triggers are matched as substrings against lowercased event text.
	Triggers []string
	// Warning is returned when a trigger matches.
	Warning string
	// Role, when set, restricts matching to events with that role.
	Role string
}

// SafetyTriggers flag potentially destructive operations.
var SafetyTriggers = []string{"rm -rf", "delete"}

// SecurityTriggers flag sensitive-data patterns.
var SecurityTriggers = []string{"password", "api key", "secret"}

// SecurityWarning is the canned reminder injected when model output
// mentions sensitive data.
const SecurityWarning = "Security reminder: Never share actual passwords or API keys. Use placeholders."

// SafetyWarning is the canned reminder injected when a destructive
// operation shows up in the conversation.
const SafetyWarning = "SAFETY WARNING: Potentially destructive operation detected. Please review carefully."

// NewSecurityAnalyzer returns a Keyword analyzer that watches model output
// for sensitive-data mentions.
func NewSecurityAnalyzer() *Keyword {
	return &Keyword{
		Triggers: SecurityTriggers,
		Warning:  SecurityWarning,
		Role:     types.RoleModel,
	}
}

// NewSafetyAnalyzer returns a Keyword analyzer that watches all events for
// destructive operations.
func NewSafetyAnalyzer() *Keyword {
	return &Keyword{
		Triggers: SafetyTriggers,
		Warning:  SafetyWarning,
	}
}

// Analyze implements Analyzer.
func (k *Keyword) Analyze(_ context.Context, newEvents []*types.Event, _ *types.Session) (string, error) {
	for _, event := range newEvents {
		if k.Role != "" && event.Role != k.Role {
			continue
		}
		text := strings.ToLower(event.Text())
		if text == "" {
			continue
		}
		for _, trigger := range k.Triggers {
			if strings.Contains(text, trigger) {
				return k.Warning, nil
			}
		}
	}
	return "", nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
