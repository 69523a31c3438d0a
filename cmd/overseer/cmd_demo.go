package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/user/overseer/internal/monitor"
	"github.com/user/overseer/internal/runtime"
	"github.com/user/overseer/internal/state"
	"github.com/user/overseer/internal/types"
	"github.com/user/overseer/pkg/llm"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

const demoInstruction = "You are a helpful assistant. When you receive safety warnings, acknowledge them and adjust your behavior."

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted monitoring demo (no API key required)",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Scripted provider: a risky reply that trips the safety analyzer,
	// then an acknowledgement once the warning lands in the session.
	provider := llm.NewScripted(
		"Here is a cleanup script:\n\n#!/bin/bash\nrm -rf /tmp/old_files/*\n\nThis removes everything under /tmp/old_files older than you want to keep.",
		"Understood. I'll add a confirmation prompt and an explicit path check before any removal so nothing is removed by accident.",
	)

	store := state.NewMemoryStore()
	rt := runtime.New(provider, demoInstruction, store, store, 1)
	rt.Start(ctx)
	defer rt.Stop()

	const (
		app     = "demo"
		user    = "demo_user"
		session = "cleanup"
	)
	if _, err := store.Create(ctx, app, user, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	slot := monitor.NewSlot()
	watcher := monitor.NewWatcher(store, store, app, user, session,
		100*time.Millisecond, monitor.NewSafetyAnalyzer(), slot)
	watcher.Start(ctx)
	defer watcher.Stop()

	banner := strings.Repeat("=", 70)
	fmt.Println(banner)
	fmt.Println("DEMO: Background session monitoring with message injection")
	fmt.Println(banner)
	fmt.Println()

	ctrl := monitor.NewController(rt, slot, app, user, session,
		monitor.WithOnEvent(func(e *types.Event) {
			switch e.Role {
			case types.RoleModel:
				fmt.Printf("Agent: %s\n\n", e.Text())
			case types.RoleUser:
				fmt.Printf("> %s\n\n", e.Text())
			}
		}))

	if err := ctrl.Submit(ctx, "Write me a bash script to clean up old files"); err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	// Give the watcher a couple of poll cycles to see the reply.
	time.Sleep(300 * time.Millisecond)

	injected, err := ctrl.CheckInjections(ctx)
	if err != nil {
		return fmt.Errorf("check injections: %w", err)
	}
	if injected {
		fmt.Println(banner)
		fmt.Println("MONITOR INJECTED A WARNING INTO THE CONVERSATION")
		fmt.Println(banner)
		fmt.Println()
	}

	sess, err := store.Get(ctx, app, user, session)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	count, err := store.Count(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("count events: %w", err)
	}

	fmt.Println(banner)
	fmt.Println("DEMO COMPLETE")
	fmt.Println(banner)
	fmt.Println()
	fmt.Println("What happened:")
	fmt.Println("1. The user asked for a cleanup script")
	fmt.Println("2. The background watcher flagged a destructive command in the reply")
	fmt.Println("3. The controller injected a safety warning as a new turn")
	fmt.Println("4. The agent acknowledged the warning")
	fmt.Println()
	fmt.Printf("Interventions used: %d\n", ctrl.Interventions())
	fmt.Printf("Total events in session: %d\n", count)
	return nil
}
