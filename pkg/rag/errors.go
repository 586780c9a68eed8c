// Package rag holds the shared error taxonomy of the conversational
// pipeline. Step-specific types live with their steps (search, task, llm).
package rag

import "errors"

var (
	// ErrInvalidInput rejects a turn before any state is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized is returned when a turn references a conversation
	// or task that was never started.
	ErrNotInitialized = errors.New("conversation not initialized")
)
