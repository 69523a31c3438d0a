// internal/scheduler/scheduler_test.go
package scheduler

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/overseer/internal/state"
)

func TestSchedulerFiresCheckIn(t *testing.T) {
	store := state.NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))

	task := &state.Task{
		Name:     "every-second",
		Prompt:   "status check-in",
		Schedule: "* * * * * *",
		App:      "demo_app",
		UserID:   "demo_user",
		Session:  "demo_session",
		Enabled:  true,
	}
	if err := store.Add(task); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int32
	sched := New(store, func(fired *state.Task) {
		if fired.Prompt != "status check-in" {
			t.Errorf("unexpected prompt: %q", fired.Prompt)
		}
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	// Wait up to 2.5 seconds for at least one fire
	deadline := time.After(2500 * time.Millisecond)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-deadline:
			t.Fatalf("handler did not fire within 2.5s, fires=%d", fires.Load())
		case <-ticker.C:
			if fires.Load() > 0 {
				return
			}
		}
	}
}

func TestSchedulerSkipsDisabled(t *testing.T) {
	store := state.NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))

	task := &state.Task{
		Name:     "disabled-task",
		Prompt:   "should not fire",
		Schedule: "* * * * * *",
		App:      "demo_app",
		UserID:   "demo_user",
		Session:  "demo_session",
		Enabled:  false,
	}
	if err := store.Add(task); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int32
	sched := New(store, func(*state.Task) {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(2 * time.Second)

	if n := fires.Load(); n != 0 {
		t.Errorf("expected 0 fires for disabled task, got %d", n)
	}
}

func TestSchedulerSkipsNoSchedule(t *testing.T) {
	store := state.NewTaskStore(filepath.Join(t.TempDir(), "tasks.json"))

	task := &state.Task{
		Name:    "no-schedule",
		Prompt:  "manual only",
		App:     "demo_app",
		UserID:  "demo_user",
		Session: "demo_session",
		Enabled: true,
	}
	if err := store.Add(task); err != nil {
		t.Fatal(err)
	}

	var fires atomic.Int32
	sched := New(store, func(*state.Task) {
		fires.Add(1)
	})
	if err := sched.Start(); err != nil {
		t.Fatal(err)
	}
	defer sched.Stop()

	time.Sleep(2 * time.Second)

	if n := fires.Load(); n != 0 {
		t.Errorf("expected 0 fires for task with no schedule, got %d", n)
	}
}
