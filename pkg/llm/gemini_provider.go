package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini wire format.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata *geminiUsage      `json:"usageMetadata"`
	ModelVersion  string            `json:"modelVersion"`
}

// GeminiProvider talks to the Gemini generateContent endpoint over plain
// HTTP request/response.
type GeminiProvider struct {
	apiKey   string
	model    string
	baseURL  string
	maxTurns int // history turns kept per request
	client   *http.Client
	logger   *log.Logger
}

// GeminiOption tweaks the provider construction.
type GeminiOption func(*GeminiProvider)

// WithBaseURL overrides the API endpoint (tests point this at a fake server).
func WithBaseURL(url string) GeminiOption {
	return func(p *GeminiProvider) { p.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHistoryWindow bounds how many trailing history messages are sent.
func WithHistoryWindow(n int) GeminiOption {
	return func(p *GeminiProvider) { p.maxTurns = n }
}

// NewGeminiProvider creates the completion client. The history window
// default matches the conversation store's recency window.
func NewGeminiProvider(apiKey, model string, logger *log.Logger, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		apiKey:   apiKey,
		model:    model,
		baseURL:  defaultGeminiBaseURL,
		maxTurns: 8,
		client:   &http.Client{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete sends [system, last-N history, user turn] to the model. The
// grounding context, when present, is prefixed to the user turn so the model
// sees retrieved material and question together.
func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResult, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return nil, &ValidationError{Message: "empty user message"}
	}
	if p.apiKey == "" {
		return nil, &ProviderError{Operation: "complete", Message: "missing API credential"}
	}

	history := req.History
	if p.maxTurns > 0 && len(history) > p.maxTurns {
		history = history[len(history)-p.maxTurns:]
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, msg := range history {
		role := "user"
		if msg.Role == "assistant" || msg.Role == "model" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Parts: []geminiPart{{Text: msg.Content}},
			Role:  role,
		})
	}

	userText := req.UserMessage
	if req.GroundingContext != "" {
		userText = req.GroundingContext + "\n\n" + req.UserMessage
	}
	contents = append(contents, geminiContent{
		Parts: []geminiPart{{Text: userText}},
		Role:  "user",
	})

	payload := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.SystemPrompt != "" {
		payload.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	res, err := p.post(ctx, "complete", payload)
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Operation: "complete", Message: "empty candidate list in response"}
	}

	result := &CompletionResult{
		Content:      res.Candidates[0].Content.Parts[0].Text,
		ModelId:      res.ModelVersion,
		FinishReason: res.Candidates[0].FinishReason,
	}
	if result.ModelId == "" {
		result.ModelId = p.model
	}
	if res.UsageMetadata != nil {
		result.Usage = TokenUsage{
			PromptTokens:     res.UsageMetadata.PromptTokenCount,
			CompletionTokens: res.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      res.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Translate asks the model for a bare translation. Any failure degrades to
// the original text.
func (p *GeminiProvider) Translate(ctx context.Context, text string, targetLanguage string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	prompt := fmt.Sprintf(
		"Translate the following text to %s. Respond with ONLY the translation, no explanations:\n\n%s",
		targetLanguage, text,
	)
	result, err := p.Complete(ctx, &CompletionRequest{
		UserMessage: prompt,
		Temperature: 0.0,
	})
	if err != nil {
		p.logger.Printf("[TRANSLATE] degraded to original text: %v", err)
		return text
	}
	return strings.TrimSpace(result.Content)
}

func (p *GeminiProvider) post(ctx context.Context, operation string, payload geminiRequest) (*geminiResponse, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Operation: operation, Message: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, &ProviderError{Operation: operation, Message: err.Error()}
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, &ProviderError{Operation: operation, Message: err.Error()}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ProviderError{Operation: operation, Message: err.Error()}
	}

	if res.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Operation:  operation,
			StatusCode: res.StatusCode,
			Message:    string(resBody),
		}
	}

	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return nil, &ProviderError{Operation: operation, Message: err.Error()}
	}
	return &geminiRes, nil
}
