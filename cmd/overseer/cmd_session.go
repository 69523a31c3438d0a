package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/user/overseer/internal/state"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionListCmd, sessionShowCmd, sessionClearCmd)
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
}

// splitKey parses an app:user:session key.
func splitKey(key string) (app, user, session string, err error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("invalid session key %q (want app:user:session)", key)
	}
	return parts[0], parts[1], parts[2], nil
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		sessions := state.NewSessionStore(cfg.DataDir)
		events := state.NewEventStore(cfg.DataDir)

		ctx := context.Background()
		list, err := sessions.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}

		if len(list) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tID\tEVENTS\tCREATED")
		for _, s := range list {
			count, err := events.Count(ctx, s.ID)
			if err != nil {
				count = 0
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				s.Key(),
				s.ID,
				count,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
			)
		}
		return w.Flush()
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <app:user:session>",
	Short: "Print a session's event log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, user, name, err := splitKey(args[0])
		if err != nil {
			return err
		}

		cfg := loadConfig()
		sessions := state.NewSessionStore(cfg.DataDir)
		events := state.NewEventStore(cfg.DataDir)

		ctx := context.Background()
		sess, err := sessions.Get(ctx, app, user, name)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		list, err := events.Since(ctx, sess.ID, 0)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}

		for _, e := range list {
			fmt.Printf("[%d] %s %s: %s\n",
				e.Seq,
				e.At.Format("15:04:05"),
				e.Role,
				e.Text(),
			)
			for _, p := range e.Parts {
				if p.ToolCall != nil {
					fmt.Printf("      tool: %s %s\n", p.ToolCall.Name, p.ToolCall.Arguments)
				}
			}
		}
		return nil
	},
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear <app:user:session|all>",
	Short: "Clear a session or all sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if args[0] == "all" {
			if err := os.RemoveAll(filepath.Join(cfg.DataDir, "sessions")); err != nil {
				return fmt.Errorf("remove sessions directory: %w", err)
			}
			fmt.Println("All sessions cleared.")
			return nil
		}

		app, user, name, err := splitKey(args[0])
		if err != nil {
			return err
		}
		sessions := state.NewSessionStore(cfg.DataDir)
		if err := sessions.Delete(context.Background(), app, user, name); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Session %s cleared.\n", args[0])
		return nil
	},
}
