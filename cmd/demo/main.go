// Standalone walkthrough of the chat pipeline. Runs without a database or
// host platform: grounding documents live in memory and the gateway is the
// standalone one. With GOOGLE_GEMINI_API_KEY set the real model answers;
// without it a canned provider echoes the grounding context.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-flowchat-be/internal/bootstrap"
	"ai-flowchat-be/internal/config"
	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/repository/memory"
	"ai-flowchat-be/internal/service"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/gateway"
	"ai-flowchat-be/pkg/language"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/rag/search"

	"github.com/fatih/color"
)

type memorySearcher struct {
	docs map[string][]search.Hit
}

func (m *memorySearcher) SearchNearVector(ctx context.Context, collection string, vector []float32, fields []string, limit int) ([]search.Hit, error) {
	hits := m.docs[collection]
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memorySearcher) SearchLexical(ctx context.Context, collection string, query string, fields []string, limit int) ([]search.Hit, error) {
	var hits []search.Hit
	for _, hit := range m.docs[collection] {
		if strings.Contains(strings.ToLower(hit.Content), strings.ToLower(query)) {
			hits = append(hits, hit)
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

type cannedCompletions struct{}

func (cannedCompletions) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResult, error) {
	content := "Based on the available documents:\n" + req.GroundingContext
	return &llm.CompletionResult{Content: content, ModelId: "canned-demo"}, nil
}

func (cannedCompletions) Translate(ctx context.Context, text, targetLanguage string) string {
	return text
}

type hashEmbedder struct{}

func (hashEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	vec := make([]float32, 8)
	for i, r := range text {
		vec[i%8] += float32(r) / 1000
	}
	return vec, nil
}

func main() {
	color.Cyan("🚀 Flow Chat Standalone Demo\n")

	cfg := config.Load()

	registry, err := flow.NewRegistry(bootstrap.DefaultFlowDefinitions(cfg))
	if err != nil {
		log.Fatalf("flow configuration: %v", err)
	}

	searcher := &memorySearcher{docs: map[string][]search.Hit{
		"hr_policies": {
			{ExternalId: "hr-1", Title: "Probation Policy", Content: "The probation period is 3 months and may be extended once.", Native: 0.12},
			{ExternalId: "hr-2", Title: "Remote Work Policy", Content: "Employees may work remotely up to 2 days per week.", Native: 0.31},
		},
		"leave_policies": {
			{ExternalId: "lv-1", Title: "Annual Leave", Content: "Full-time employees accrue 20 annual leave days per year.", Native: 0.08},
		},
	}}

	var completions llm.CompletionProvider = cannedCompletions{}
	if cfg.Keys.GoogleGemini != "" {
		completions = llm.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.CompletionModel, log.New(os.Stdout, "", 0))
		color.Yellow("Using real Gemini model %s", cfg.Ai.CompletionModel)
	} else {
		color.Yellow("No GOOGLE_GEMINI_API_KEY, using canned completions")
	}

	engine := search.NewEngine(registry, hashEmbedder{}, completions, searcher, search.DefaultConfig(), log.New(os.Stdout, "", 0))
	standaloneGw := gateway.NewStandaloneGateway(registry)

	chatService := service.NewChatService(service.ChatServiceParams{
		Registry:      registry,
		Detector:      language.NewScriptDetector(),
		Completions:   completions,
		Retrieval:     engine,
		Conversations: memory.NewConversationRepository(),
		Tasks:         memory.NewTaskRepository(),
		Notices:       memory.NewNoticeRepository(),
		Logger:        demoLogger{},
	})

	ctx := context.Background()
	identity, _ := standaloneGw.GetIdentity(ctx)
	color.Green("Acting as: %s (%s)\n", identity.DisplayName, identity.UserId)

	color.Yellow("\n[1] Available flows")
	for _, def := range registry.ListFlows() {
		fmt.Printf("  - %s (retrieval: %v)\n", def.Key, def.Retrieval != nil)
	}

	color.Yellow("\n[2] HR question")
	resp, err := chatService.SendChat(ctx, identity.UserId, &dto.SendChatRequest{
		FlowKey: "HR",
		Message: "What is the probation period?",
	})
	if err != nil {
		color.Red("turn failed: %v", err)
		return
	}
	color.Green("Reply (%s, lang=%s):", resp.TaskStatus, resp.DetectedLanguage)
	fmt.Println(resp.Reply.Content)
	for _, c := range resp.Reply.Citations {
		fmt.Printf("  [%d] %s (score %.2f)\n", c.Index, c.Title, c.Score)
	}

	color.Yellow("\n[3] LEAVE follow-up in the same conversation")
	resp2, err := chatService.SendChat(ctx, identity.UserId, &dto.SendChatRequest{
		ConversationId: resp.ConversationId,
		FlowKey:        "LEAVE",
		Message:        "How many annual leave days do I get?",
	})
	if err != nil {
		color.Red("turn failed: %v", err)
		return
	}
	fmt.Println(resp2.Reply.Content)

	color.Yellow("\n[4] Mutating action without a host platform")
	if _, err := standaloneGw.CreateRecord(ctx, "LEAVE", map[string]string{"type": "annual"}); err != nil {
		color.Red("expected: %v", err)
	}

	color.Yellow("\n[5] Full transcript")
	transcript, err := chatService.GetTranscript(ctx, identity.UserId, resp.ConversationId, "")
	if err != nil {
		color.Red("transcript failed: %v", err)
		return
	}
	for _, msg := range transcript.Messages {
		fmt.Printf("  %-9s [%s] %.60s\n", msg.Role, msg.FlowKey, strings.ReplaceAll(msg.Content, "\n", " "))
	}

	color.Cyan("\n✅ Demo complete")
}

type demoLogger struct{}

func (demoLogger) Debug(string, string, map[string]interface{}) {}
func (demoLogger) Info(string, string, map[string]interface{})  {}
func (demoLogger) Warn(module, message string, details map[string]interface{}) {
	color.Yellow("[WARN] %s: %s", module, message)
}
func (demoLogger) Error(module, message string, details map[string]interface{}) {
	color.Red("[ERROR] %s: %s", module, message)
}
func (demoLogger) Sync() error { return nil }
