package store

import (
	"time"

	"github.com/google/uuid"
)

// Message roles within a conversation transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn steps recorded in message metadata.
const (
	StepRetrieve = "retrieve"
	StepAnalyze  = "analyze"
	StepAction   = "action"
	StepRespond  = "respond"
)

// PlaceholderContent is the assistant body shown while a turn is in flight.
// It is patched exactly once when generation completes (or fails).
const PlaceholderContent = "processing..."

// Citation points back to a retrieved document used in an answer.
type Citation struct {
	Index    int     `json:"index"` // 1-based, matches context order
	Title    string  `json:"title"`
	SourceId string  `json:"source_id"`
	Score    float64 `json:"score"`
}

// MessageMetadata carries per-turn bookkeeping attached to a message.
type MessageMetadata struct {
	FlowKey          string `json:"flow_key"`
	DomainCategory   string `json:"domain_category,omitempty"`
	PromptId         string `json:"prompt_id,omitempty"`
	Step             string `json:"step,omitempty"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	TimestampMillis  int64  `json:"timestamp_millis"`
	ModelId          string `json:"model_id,omitempty"`
	TokensUsed       int    `json:"tokens_used,omitempty"`
}

// ConversationMessage is one entry in the append-only transcript.
// User messages are immutable once created; the assistant placeholder is
// patched exactly once with final content, metadata and citations.
type ConversationMessage struct {
	Id        uuid.UUID       `json:"id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  MessageMetadata `json:"metadata"`
	Citations []Citation      `json:"citations,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Document is a retrieved knowledge record, ephemeral to one turn.
// Score is normalized to [0,1] regardless of the partition's native metric.
type Document struct {
	Identifier     string                 `json:"identifier"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	DomainMetadata map[string]interface{} `json:"domain_metadata,omitempty"`
	Score          float64                `json:"score"`
}

// Conversation is the in-memory session transcript. Nothing here survives a
// process restart; the orchestrator is the single writer.
type Conversation struct {
	Id       string                 `json:"id"`
	UserId   string                 `json:"user_id"`
	FlowKey  string                 `json:"flow_key"`
	Messages []*ConversationMessage `json:"messages"`
}
