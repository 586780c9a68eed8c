package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/repository/memory"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/language"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/rag"
	"ai-flowchat-be/pkg/rag/search"
	"ai-flowchat-be/pkg/rag/task"
	"ai-flowchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakeCompletions struct {
	lastRequest *llm.CompletionRequest
	reply       string
	err         error
}

func (f *fakeCompletions) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResult, error) {
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResult{
		Content: f.reply,
		Usage:   llm.TokenUsage{TotalTokens: 42},
		ModelId: "fake-model",
	}, nil
}

func (f *fakeCompletions) Translate(ctx context.Context, text, targetLanguage string) string {
	return text
}

type fakeEmbedder struct{}

func (fakeEmbedder) Generate(ctx context.Context, text, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeSearcher struct {
	hits []search.Hit
	err  error
}

func (f *fakeSearcher) SearchNearVector(ctx context.Context, collection string, vector []float32, fields []string, limit int) ([]search.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *fakeSearcher) SearchLexical(ctx context.Context, collection string, query string, fields []string, limit int) ([]search.Hit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func testRegistry(t *testing.T) *flow.Registry {
	t.Helper()
	registry, err := flow.NewRegistry([]*flow.Definition{
		{
			Key: "HR",
			Retrieval: &flow.PartitionRef{
				Collection: "hr_policies",
				Scheme:     flow.SchemeDistance,
			},
			PermittedActions: []flow.Action{flow.ActionAnswerOnly},
			PromptTemplate:   "You are an HR assistant.",
		},
		{
			Key:              "CRM",
			PermittedActions: []flow.Action{flow.ActionAnswerOnly, flow.ActionCreate},
			PromptTemplate:   "You are a CRM assistant.",
		},
	})
	require.NoError(t, err)
	return registry
}

type chatFixture struct {
	service     IChatService
	completions *fakeCompletions
	searcher    *fakeSearcher
	tasks       *memory.TaskRepository
	convs       *memory.ConversationRepository
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	registry := testRegistry(t)
	completions := &fakeCompletions{reply: "Grounded answer."}
	searcher := &fakeSearcher{hits: []search.Hit{
		{ExternalId: "doc-1", Title: "Leave policy", Content: "Employees get 20 days.", Native: 0.1},
	}}
	engine := search.NewEngine(registry, fakeEmbedder{}, completions, searcher, search.DefaultConfig(), log.New(log.Writer(), "", 0))

	convs := memory.NewConversationRepository()
	tasks := memory.NewTaskRepository()
	svc := NewChatService(ChatServiceParams{
		Registry:      registry,
		Detector:      language.NewScriptDetector(),
		Completions:   completions,
		Retrieval:     engine,
		Conversations: convs,
		Tasks:         tasks,
		Notices:       memory.NewNoticeRepository(),
		Logger:        nopLogger{},
		MaxTokens:     512,
	})
	return &chatFixture{
		service:     svc,
		completions: completions,
		searcher:    searcher,
		tasks:       tasks,
		convs:       convs,
	}
}

func TestSendChatGroundedTurn(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "HR",
		Message: "How many leave days do I have?",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ConversationId)
	assert.Equal(t, string(task.StatusCompleted), resp.TaskStatus)
	assert.Equal(t, "en", resp.DetectedLanguage)
	assert.Equal(t, "Grounded answer.", resp.Reply.Content)
	assert.Equal(t, store.StepRespond, resp.Reply.Step)
	require.Len(t, resp.Reply.Citations, 1)
	assert.Equal(t, "Leave policy", resp.Reply.Citations[0].Title)
	assert.Equal(t, "fake-model", resp.Reply.ModelId)

	// The provider must have seen the retrieved excerpt, not the marker.
	require.NotNil(t, f.completions.lastRequest)
	assert.Contains(t, f.completions.lastRequest.GroundingContext, "Leave policy")

	state, err := f.tasks.Get(resp.TaskId)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, state.Status)

	// Transcript holds the user turn and the patched reply.
	conv, found := f.convs.Get(resp.ConversationId)
	require.True(t, found)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, store.RoleUser, conv.Messages[0].Role)
	assert.NotEqual(t, store.PlaceholderContent, conv.Messages[1].Content)
}

func TestSendChatRejectsEmptyMessage(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "HR",
		Message: "   ",
	})
	assert.ErrorIs(t, err, rag.ErrInvalidInput)
}

func TestSendChatRejectsOversizedMessage(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "HR",
		Message: strings.Repeat("a", 5001),
	})
	assert.ErrorIs(t, err, rag.ErrInvalidInput)
}

func TestSendChatRejectsForeignConversation(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "my private salary question",
	})
	require.NoError(t, err)

	// Another user who guesses the conversation id must not be able to
	// append into it or have its transcript fed to the model as history.
	_, err = f.service.SendChat(ctx, "user-2", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "what did the other user ask?",
	})
	assert.ErrorIs(t, err, rag.ErrNotInitialized)

	conv, found := f.convs.Get("conv-1")
	require.True(t, found)
	assert.Len(t, conv.Messages, 2)
	for _, msg := range f.completions.lastRequest.History {
		assert.NotContains(t, msg.Content, "private salary")
	}
}

func TestSendChatUnknownFlow(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "NOPE",
		Message: "hello",
	})
	assert.ErrorIs(t, err, flow.ErrUnknownFlow)
}

func TestSendChatDegradesWhenRetrievalFails(t *testing.T) {
	f := newChatFixture(t)
	f.searcher.err = errors.New("partition offline")

	resp, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "HR",
		Message: "What is the leave policy?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Grounded answer.", resp.Reply.Content)
	assert.Empty(t, resp.Reply.Citations)
	assert.Equal(t, search.NoResultsMarker, f.completions.lastRequest.GroundingContext)
}

func TestSendChatAnswerOnlyFlowSkipsRetrieval(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey: "CRM",
		Message: "Who is our top customer?",
	})
	require.NoError(t, err)

	// No retrieval happened, so the prompt must not claim documents were
	// searched and missing.
	assert.Empty(t, resp.Reply.Citations)
	assert.Empty(t, f.completions.lastRequest.GroundingContext)
}

func TestSendChatCompletionFailureFailsTurn(t *testing.T) {
	f := newChatFixture(t)
	f.completions.err = &llm.ProviderError{Operation: "complete", StatusCode: 500, Message: "quota"}

	_, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		ConversationId: "conv-fail",
		FlowKey:        "HR",
		Message:        "hello",
	})
	var providerErr *llm.ProviderError
	require.ErrorAs(t, err, &providerErr)

	// Placeholder must be patched with the failure reply, never left hanging.
	conv, found := f.convs.Get("conv-fail")
	require.True(t, found)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, failureReply, conv.Messages[1].Content)
}

func TestSendChatLanguageOverride(t *testing.T) {
	f := newChatFixture(t)

	resp, err := f.service.SendChat(context.Background(), "user-1", &dto.SendChatRequest{
		FlowKey:  "HR",
		Message:  "hello",
		Language: "fr",
	})
	require.NoError(t, err)
	assert.Equal(t, "fr", resp.DetectedLanguage)
}

func TestSendChatHistoryIsFlowScoped(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "hr question one",
	})
	require.NoError(t, err)

	_, err = f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "CRM",
		Message:        "crm question",
	})
	require.NoError(t, err)

	_, err = f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "hr question two",
	})
	require.NoError(t, err)

	history := f.completions.lastRequest.History
	for _, msg := range history {
		assert.False(t, strings.Contains(msg.Content, "crm"), "history leaked a foreign flow message: %q", msg.Content)
	}
	require.Len(t, history, 2) // first HR turn pair
	assert.Equal(t, "hr question one", history[0].Content)
	assert.Equal(t, "Grounded answer.", history[1].Content)
}

func TestSendChatHistoryKeepsPlaceholderLookalike(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	// A user message whose text matches the in-flight bubble body is still
	// a real message and must survive into the next turn's history.
	_, err := f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        store.PlaceholderContent,
	})
	require.NoError(t, err)

	_, err = f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "follow up",
	})
	require.NoError(t, err)

	history := f.completions.lastRequest.History
	require.Len(t, history, 2)
	assert.Equal(t, store.RoleUser, history[0].Role)
	assert.Equal(t, store.PlaceholderContent, history[0].Content)
}

func TestPauseAndResumeTask(t *testing.T) {
	f := newChatFixture(t)

	// A paused turn only makes sense for a RUNNING task, so seed one.
	state := task.New("task-1", "user-1", "HR", testNow())
	running, err := task.Start(state, TurnStepCompleting, testNow())
	require.NoError(t, err)
	f.tasks.Save(running)

	paused, err := f.service.PauseTask(context.Background(), "user-1", "task-1", "missing-conv")
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusPaused), paused.Status)

	resumed, err := f.service.ResumeTask(context.Background(), "user-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusRunning), resumed.Status)

	_, err = f.service.ResumeTask(context.Background(), "user-1", "task-1")
	assert.ErrorIs(t, err, task.ErrIllegalTransition)
}

func TestPauseUnknownTask(t *testing.T) {
	f := newChatFixture(t)
	_, err := f.service.PauseTask(context.Background(), "user-1", "nope", "conv")
	assert.ErrorIs(t, err, rag.ErrNotInitialized)
}

func TestTaskOperationsHiddenFromOtherUsers(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	state := task.New("task-1", "user-1", "HR", testNow())
	running, err := task.Start(state, TurnStepCompleting, testNow())
	require.NoError(t, err)
	f.tasks.Save(running)

	// A foreign task id looks exactly like a missing one.
	_, err = f.service.GetTask(ctx, "user-2", "task-1")
	assert.ErrorIs(t, err, rag.ErrNotInitialized)
	_, err = f.service.PauseTask(ctx, "user-2", "task-1", "conv-1")
	assert.ErrorIs(t, err, rag.ErrNotInitialized)
	_, err = f.service.ResumeTask(ctx, "user-2", "task-1")
	assert.ErrorIs(t, err, rag.ErrNotInitialized)

	// The owner still sees it untouched.
	got, err := f.service.GetTask(ctx, "user-1", "task-1")
	require.NoError(t, err)
	assert.Equal(t, string(task.StatusRunning), got.Status)
}

func TestGetTranscriptFilters(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	_, err := f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "HR",
		Message:        "hr question",
	})
	require.NoError(t, err)
	_, err = f.service.SendChat(ctx, "user-1", &dto.SendChatRequest{
		ConversationId: "conv-1",
		FlowKey:        "CRM",
		Message:        "crm question",
	})
	require.NoError(t, err)

	full, err := f.service.GetTranscript(ctx, "user-1", "conv-1", "")
	require.NoError(t, err)
	assert.Len(t, full.Messages, 4)

	hrOnly, err := f.service.GetTranscript(ctx, "user-1", "conv-1", "HR")
	require.NoError(t, err)
	assert.Len(t, hrOnly.Messages, 2)

	_, err = f.service.GetTranscript(ctx, "someone-else", "conv-1", "")
	assert.ErrorIs(t, err, rag.ErrNotInitialized)

	_, err = f.service.GetTranscript(ctx, "user-1", "conv-1", "NOPE")
	assert.ErrorIs(t, err, flow.ErrUnknownFlow)
}
