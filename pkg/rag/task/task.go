package task

import (
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of one orchestrated conversational turn.
type Status string

const (
	StatusIdle         Status = "IDLE"
	StatusRunning      Status = "RUNNING"
	StatusPaused       Status = "PAUSED"
	StatusWaitingInput Status = "WAITING_INPUT"
	StatusFailed       Status = "FAILED"
	StatusCompleted    Status = "COMPLETED"
)

// ErrIllegalTransition is returned when a transition is requested from a
// state that does not allow it. The input state is never mutated.
var ErrIllegalTransition = errors.New("illegal task transition")

// SavedContext records where a paused task can pick up from. Pausing does
// not cancel the in-flight call; it only flags the task and records a
// resumption point for the UI.
type SavedContext struct {
	MessageCountAtPause int                    `json:"message_count_at_pause"`
	Payload             map[string]interface{} `json:"payload,omitempty"`
}

// State is an immutable snapshot of one task. Transitions return a new
// snapshot; they never mutate in place.
type State struct {
	TaskId       string        `json:"task_id"`
	OwnerId      string        `json:"owner_id"`
	Status       Status        `json:"status"`
	FlowKey      string        `json:"flow_key"`
	CurrentStep  string        `json:"current_step"`
	SavedContext *SavedContext `json:"saved_context,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// IsTerminal reports whether the state accepts no further transitions.
func (s State) IsTerminal() bool {
	return s.Status == StatusFailed || s.Status == StatusCompleted
}

// New creates an IDLE task snapshot bound to the user who started the turn.
func New(taskId, ownerId, flowKey string, now time.Time) State {
	return State{
		TaskId:    taskId,
		OwnerId:   ownerId,
		Status:    StatusIdle,
		FlowKey:   flowKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Start moves IDLE or WAITING_INPUT to RUNNING at the given step.
func Start(s State, step string, now time.Time) (State, error) {
	if s.Status != StatusIdle && s.Status != StatusWaitingInput {
		return s, transitionErr(s.Status, StatusRunning)
	}
	next := s
	next.Status = StatusRunning
	next.CurrentStep = step
	next.UpdatedAt = now
	return next, nil
}

// Advance updates the current step of a RUNNING task.
func Advance(s State, step string, now time.Time) (State, error) {
	if s.Status != StatusRunning {
		return s, transitionErr(s.Status, StatusRunning)
	}
	next := s
	next.CurrentStep = step
	next.UpdatedAt = now
	return next, nil
}

// Pause is only valid from RUNNING. The message count at pause time is
// recorded so the UI can restore its position on resume.
func Pause(s State, messageCount int, now time.Time) (State, error) {
	if s.Status != StatusRunning {
		return s, transitionErr(s.Status, StatusPaused)
	}
	next := s
	next.Status = StatusPaused
	next.SavedContext = &SavedContext{MessageCountAtPause: messageCount}
	next.UpdatedAt = now
	return next, nil
}

// Resume is only valid from PAUSED.
func Resume(s State, now time.Time) (State, error) {
	if s.Status != StatusPaused {
		return s, transitionErr(s.Status, StatusRunning)
	}
	next := s
	next.Status = StatusRunning
	next.UpdatedAt = now
	return next, nil
}

// AwaitInput parks a RUNNING task until the user supplies more input.
func AwaitInput(s State, now time.Time) (State, error) {
	if s.Status != StatusRunning {
		return s, transitionErr(s.Status, StatusWaitingInput)
	}
	next := s
	next.Status = StatusWaitingInput
	next.UpdatedAt = now
	return next, nil
}

// Complete moves RUNNING (or PAUSED, if the in-flight call finished while
// flagged) to the terminal COMPLETED state.
func Complete(s State, now time.Time) (State, error) {
	if s.Status != StatusRunning && s.Status != StatusPaused {
		return s, transitionErr(s.Status, StatusCompleted)
	}
	next := s
	next.Status = StatusCompleted
	next.UpdatedAt = now
	return next, nil
}

// Fail moves any non-terminal state to the terminal FAILED state.
func Fail(s State, now time.Time) (State, error) {
	if s.IsTerminal() {
		return s, transitionErr(s.Status, StatusFailed)
	}
	next := s
	next.Status = StatusFailed
	next.UpdatedAt = now
	return next, nil
}

func transitionErr(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
}
