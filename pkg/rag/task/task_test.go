package task

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func runningState(t *testing.T) State {
	t.Helper()
	s := New("task-1", "user-1", "HR", t0)
	running, err := Start(s, "received", t0.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	return running
}

func TestNewStartsIdle(t *testing.T) {
	s := New("task-1", "user-1", "HR", t0)
	if s.Status != StatusIdle || s.FlowKey != "HR" || s.IsTerminal() {
		t.Fatalf("unexpected initial state: %+v", s)
	}
}

func TestStartFromIdleAndWaitingInput(t *testing.T) {
	s := runningState(t)
	if s.Status != StatusRunning || s.CurrentStep != "received" {
		t.Fatalf("unexpected state after start: %+v", s)
	}

	waiting, err := AwaitInput(s, t0.Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	restarted, err := Start(waiting, "retrieving", t0.Add(3*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if restarted.Status != StatusRunning || restarted.CurrentStep != "retrieving" {
		t.Fatalf("unexpected state after restart: %+v", restarted)
	}
}

func TestStartFromRunningIsIllegal(t *testing.T) {
	s := runningState(t)
	if _, err := Start(s, "x", t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestAdvanceOnlyWhileRunning(t *testing.T) {
	s := runningState(t)
	advanced, err := Advance(s, "completing", t0.Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if advanced.CurrentStep != "completing" {
		t.Fatalf("step = %s", advanced.CurrentStep)
	}

	idle := New("task-2", "user-1", "HR", t0)
	if _, err := Advance(idle, "x", t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestPauseRecordsResumePoint(t *testing.T) {
	s := runningState(t)
	paused, err := Pause(s, 7, t0.Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if paused.Status != StatusPaused {
		t.Fatalf("status = %s", paused.Status)
	}
	if paused.SavedContext == nil || paused.SavedContext.MessageCountAtPause != 7 {
		t.Fatalf("saved context not recorded: %+v", paused.SavedContext)
	}

	// Only RUNNING pauses.
	if _, err := Pause(paused, 7, t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestResumeOnlyFromPaused(t *testing.T) {
	s := runningState(t)
	paused, _ := Pause(s, 2, t0.Add(time.Second))

	resumed, err := Resume(paused, t0.Add(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if resumed.Status != StatusRunning {
		t.Fatalf("status = %s", resumed.Status)
	}

	if _, err := Resume(resumed, t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestCompleteFromRunningAndPaused(t *testing.T) {
	s := runningState(t)
	done, err := Complete(s, t0.Add(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if done.Status != StatusCompleted || !done.IsTerminal() {
		t.Fatalf("unexpected: %+v", done)
	}

	paused, _ := Pause(runningState(t), 1, t0)
	if _, err := Complete(paused, t0); err != nil {
		t.Fatalf("paused task should complete, got %v", err)
	}

	if _, err := Complete(done, t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("terminal task must not complete again, got %v", err)
	}
}

func TestFailFromAnyNonTerminal(t *testing.T) {
	for _, build := range []func() State{
		func() State { return New("t", "user-1", "HR", t0) },
		func() State { return runningState(t) },
		func() State { s, _ := Pause(runningState(t), 1, t0); return s },
		func() State { s, _ := AwaitInput(runningState(t), t0); return s },
	} {
		failed, err := Fail(build(), t0.Add(time.Second))
		if err != nil {
			t.Fatal(err)
		}
		if failed.Status != StatusFailed {
			t.Fatalf("status = %s", failed.Status)
		}
	}

	done, _ := Complete(runningState(t), t0)
	if _, err := Fail(done, t0); !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("terminal task must not fail, got %v", err)
	}
}

func TestTransitionsDoNotMutateInput(t *testing.T) {
	s := runningState(t)
	before := s

	if _, err := Pause(s, 3, t0.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if s != before {
		t.Fatalf("input snapshot mutated: %+v vs %+v", s, before)
	}
}
