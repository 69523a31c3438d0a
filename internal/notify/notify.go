// Package notify delivers monitor alerts to operators.
package notify

import (
	"context"
	"log/slog"
)

// Notifier receives an out-of-band alert whenever the monitor intervenes in
// a conversation. Alerts are advisory; delivery failures never affect the
// conversation itself.
type Notifier interface {
	Alert(ctx context.Context, text string) error
}

// Log writes alerts to the process log.
type Log struct{}

// Alert implements Notifier.
func (Log) Alert(_ context.Context, text string) error {
	slog.Warn("monitor alert", "text", text)
	return nil
}

// Multi fans an alert out to several notifiers. The first error is
// returned, but all notifiers are attempted.
type Multi []Notifier

// Alert implements Notifier.
func (m Multi) Alert(ctx context.Context, text string) error {
	var first error
	for _, n := range m {
		if err := n.Alert(ctx, text); err != nil && first == nil {
			first = err
		}
	}
	return first
}
