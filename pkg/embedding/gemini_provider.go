package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ai-flowchat-be/pkg/llm"
)

const defaultEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type embedRequestPart struct {
	Text string `json:"text"`
}

type embedRequestContent struct {
	Parts []embedRequestPart `json:"parts"`
}

type embedRequest struct {
	Model    string              `json:"model"`
	Content  embedRequestContent `json:"content"`
	TaskType string              `json:"taskType,omitempty"`
}

type embedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// GeminiProvider generates embeddings via the Gemini embedContent endpoint.
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGeminiProvider creates the embedding client. An empty baseURL selects
// the production endpoint; tests pass a fake server URL.
func NewGeminiProvider(apiKey, model, baseURL string) *GeminiProvider {
	if baseURL == "" {
		baseURL = defaultEmbedBaseURL
	}
	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Generate embeds one text. Empty input is rejected before any network call.
func (p *GeminiProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ValidationError{Message: "empty text for embedding"}
	}
	if p.apiKey == "" {
		return nil, &llm.ProviderError{Operation: "embed", Message: "missing API credential"}
	}

	payload := embedRequest{
		Model:    "models/" + p.model,
		Content:  embedRequestContent{Parts: []embedRequestPart{{Text: text}}},
		TaskType: taskType,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, &llm.ProviderError{Operation: "embed", Message: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, &llm.ProviderError{Operation: "embed", Message: err.Error()}
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, &llm.ProviderError{Operation: "embed", Message: err.Error()}
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &llm.ProviderError{Operation: "embed", Message: err.Error()}
	}

	if res.StatusCode != http.StatusOK {
		return nil, &llm.ProviderError{
			Operation:  "embed",
			StatusCode: res.StatusCode,
			Message:    string(resBody),
		}
	}

	var embedRes embedResponse
	if err := json.Unmarshal(resBody, &embedRes); err != nil {
		return nil, &llm.ProviderError{Operation: "embed", Message: err.Error()}
	}
	if len(embedRes.Embedding.Values) == 0 {
		return nil, &llm.ProviderError{Operation: "embed", Message: "empty embedding in response"}
	}

	return embedRes.Embedding.Values, nil
}
