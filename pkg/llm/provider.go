package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// TokenUsage reports token counts for one completion call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest describes one chat completion. The provider builds the
// outbound message sequence as [system, ...history, user turn]; when
// GroundingContext is non-empty it is prefixed to the user turn.
type CompletionRequest struct {
	SystemPrompt     string
	UserMessage      string
	History          []Message
	GroundingContext string
	Temperature      float64
	MaxTokens        int
}

// CompletionResult is the provider response for a completion call.
type CompletionResult struct {
	Content      string
	Usage        TokenUsage
	ModelId      string
	FinishReason string
}

// CompletionProvider defines the contract for any LLM backend. Each call is
// a single outbound request; no retries are performed here. Blind retries on
// a paid generative endpoint are a cost and latency hazard, so retry policy
// belongs to the caller.
type CompletionProvider interface {
	// Complete sends one chat completion request.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error)

	// Translate normalizes text to the target language. Best-effort: on any
	// provider failure the original text is returned unchanged, because
	// translation is an optimization, not a correctness requirement.
	Translate(ctx context.Context, text string, targetLanguage string) string
}
