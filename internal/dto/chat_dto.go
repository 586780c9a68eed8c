package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	ConversationId string `json:"conversation_id,omitempty"` // generated when empty
	FlowKey        string `json:"flow_key" validate:"required"`
	Message        string `json:"message" validate:"required,min=1,max=5000"`
	Language       string `json:"language,omitempty"` // overrides detection when set
}

type CitationDTO struct {
	Index    int     `json:"index"`
	Title    string  `json:"title"`
	SourceId string  `json:"source_id,omitempty"`
	Score    float64 `json:"score"`
}

type ChatMessageDTO struct {
	Id               uuid.UUID     `json:"id"`
	Role             string        `json:"role"`
	Content          string        `json:"content"`
	FlowKey          string        `json:"flow_key"`
	Step             string        `json:"step,omitempty"`
	DetectedLanguage string        `json:"detected_language,omitempty"`
	ModelId          string        `json:"model_id,omitempty"`
	TokensUsed       int           `json:"tokens_used,omitempty"`
	Citations        []CitationDTO `json:"citations,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

type SendChatResponse struct {
	ConversationId   string          `json:"conversation_id"`
	TaskId           string          `json:"task_id"`
	TaskStatus       string          `json:"task_status"`
	DetectedLanguage string          `json:"detected_language"`
	Sent             *ChatMessageDTO `json:"sent"`
	Reply            *ChatMessageDTO `json:"reply"`
}

type TranscriptResponse struct {
	ConversationId string           `json:"conversation_id"`
	FlowKey        string           `json:"flow_key,omitempty"` // set when filtered
	Messages       []ChatMessageDTO `json:"messages"`
}

type TaskStatusResponse struct {
	TaskId      string    `json:"task_id"`
	Status      string    `json:"status"`
	FlowKey     string    `json:"flow_key"`
	CurrentStep string    `json:"current_step,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NoticeResponse struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}
