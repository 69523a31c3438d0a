package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/overseer/internal/config"
	"github.com/user/overseer/internal/monitor"
	"github.com/user/overseer/internal/notify"
	"github.com/user/overseer/internal/runtime"
	"github.com/user/overseer/internal/scheduler"
	"github.com/user/overseer/internal/state"
	"github.com/user/overseer/internal/transcript"
	"github.com/user/overseer/internal/types"
	"github.com/user/overseer/pkg/llm/openai"
)

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("app", "overseer", "application name")
	chatCmd.Flags().String("user", "local", "user ID")
	chatCmd.Flags().String("session", "default", "session name")
	chatCmd.Flags().String("analyzer", "keyword", "monitor analyzer: keyword, agent, or observer")
	chatCmd.Flags().String("instruction", "You are a helpful assistant.", "system instruction for the agent")
}

const analystInstruction = "You are a monitoring assistant. Review conversation excerpts and decide whether the main agent needs feedback. Reply with a short note; say 'intervene' or 'issue' only when something actually needs attention."

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the agent while a monitor watches the session",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

// buildAnalyzer picks the watcher's analyzer. The agent analyzer runs a
// second runtime whose sessions live in memory so analyst chatter never
// pollutes the on-disk logs.
func buildAnalyzer(ctx context.Context, cfg *config.Config, name string) (monitor.Analyzer, error) {
	switch name {
	case "keyword":
		triggers := cfg.Monitor.Triggers
		if len(triggers) == 0 {
			triggers = monitor.SecurityTriggers
		}
		warning := cfg.Monitor.Warning
		if warning == "" {
			warning = monitor.SecurityWarning
		}
		return &monitor.Keyword{Triggers: triggers, Warning: warning, Role: types.RoleModel}, nil
	case "agent":
		if cfg.Monitor.LLM.APIKey == "" {
			return nil, fmt.Errorf("agent analyzer needs monitor.llm.api_key (or OPENAI_API_KEY)")
		}
		store := state.NewMemoryStore()
		analystRT := runtime.New(openai.New(cfg.Monitor.LLM.ProviderConfig()),
			analystInstruction, store, store, 1)
		analystRT.Start(ctx)
		if _, err := store.Create(ctx, "monitor", "analyst", "review"); err != nil {
			return nil, fmt.Errorf("create analyst session: %w", err)
		}
		builder, err := transcript.New(cfg.Monitor.LLM.Model, cfg.Monitor.TranscriptTokens)
		if err != nil {
			return nil, fmt.Errorf("create transcript builder: %w", err)
		}
		return monitor.NewAgent(analystRT, builder, "monitor", "analyst", "review"), nil
	case "observer":
		return monitor.Observer{}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer: %s", name)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	setupLogging(cfg)

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured; set OPENAI_API_KEY or run: overseer config set llm.api_key <key>")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	app, _ := cmd.Flags().GetString("app")
	user, _ := cmd.Flags().GetString("user")
	sessionName, _ := cmd.Flags().GetString("session")
	analyzerName, _ := cmd.Flags().GetString("analyzer")
	instruction, _ := cmd.Flags().GetString("instruction")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sessions := state.NewSessionStore(cfg.DataDir)
	events := state.NewEventStore(cfg.DataDir)

	rt := runtime.New(openai.New(cfg.LLM.ProviderConfig()),
		instruction, sessions, events, int64(cfg.MaxConcurrent))
	rt.Start(ctx)
	defer rt.Stop()

	if _, err := sessions.Create(ctx, app, user, sessionName); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	analyzer, err := buildAnalyzer(ctx, cfg, analyzerName)
	if err != nil {
		return err
	}

	slot := monitor.NewSlot()
	interval := time.Duration(cfg.Monitor.PollIntervalMS) * time.Millisecond
	watcher := monitor.NewWatcher(sessions, events, app, user, sessionName, interval, analyzer, slot)
	watcher.Start(ctx)
	defer watcher.Stop()

	var notifier notify.Notifier = notify.Log{}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return fmt.Errorf("create telegram notifier: %w", err)
		}
		notifier = notify.Multi{notify.Log{}, tg}
		slog.Info("telegram alerts enabled", "chat_id", cfg.Telegram.ChatID)
	}

	ctrl := monitor.NewController(rt, slot, app, user, sessionName,
		monitor.WithNotifier(notifier),
		monitor.WithMaxInterventions(cfg.Monitor.MaxInterventions),
		monitor.WithOnEvent(func(e *types.Event) {
			if e.Role == types.RoleModel {
				fmt.Printf("\n%s\n\n", e.Text())
			}
		}))

	// Scheduled check-ins go through the same controller path as typed
	// input, so their replies get monitored too.
	tasks := state.NewTaskStore(filepath.Join(cfg.DataDir, "tasks.json"))
	sched := scheduler.New(tasks, func(task *state.Task) {
		if task.App != app || task.UserID != user || task.Session != sessionName {
			return
		}
		fmt.Printf("\n[check-in: %s]\n", task.Name)
		if err := ctrl.Converse(ctx, task.Prompt); err != nil {
			slog.Error("check-in failed", "task", task.Name, "error", err)
		}
		fmt.Print("> ")
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	fmt.Printf("Chatting in %s (analyzer: %s). Type /quit to exit.\n", types.NewSessionKey(app, user, sessionName), analyzerName)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit", line == "/exit":
			fmt.Printf("Interventions used: %d\n", ctrl.Interventions())
			return nil
		default:
			if err := ctrl.Converse(ctx, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}
