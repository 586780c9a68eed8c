package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-flowchat-be/internal/dto"
	"ai-flowchat-be/internal/pkg/logger"
	"ai-flowchat-be/internal/repository/memory"
	"ai-flowchat-be/pkg/events"
	"ai-flowchat-be/pkg/flow"
	"ai-flowchat-be/pkg/language"
	"ai-flowchat-be/pkg/llm"
	"ai-flowchat-be/pkg/rag"
	"ai-flowchat-be/pkg/rag/search"
	"ai-flowchat-be/pkg/rag/task"
	"ai-flowchat-be/pkg/store"

	"github.com/google/uuid"
)

// Turn steps recorded on the task while a message is processed.
const (
	TurnStepReceived   = "received"
	TurnStepDetecting  = "detecting_language"
	TurnStepRetrieving = "retrieving"
	TurnStepCompleting = "completing"
	TurnStepFinalizing = "finalizing"
)

// failureReply is patched into the placeholder when generation fails, so the
// transcript never shows a dangling "processing..." bubble.
const failureReply = "Sorry, something went wrong while generating this answer. Please try again."

// maxMessageLength caps user input before any model call.
const maxMessageLength = 5000

type IChatService interface {
	SendChat(ctx context.Context, userId string, req *dto.SendChatRequest) (*dto.SendChatResponse, error)
	GetTranscript(ctx context.Context, userId, conversationId, flowKey string) (*dto.TranscriptResponse, error)
	GetTask(ctx context.Context, userId, taskId string) (*dto.TaskStatusResponse, error)
	PauseTask(ctx context.Context, userId, taskId, conversationId string) (*dto.TaskStatusResponse, error)
	ResumeTask(ctx context.Context, userId, taskId string) (*dto.TaskStatusResponse, error)
	GetNotices(ctx context.Context, userId string, limit int) ([]dto.NoticeResponse, error)
}

type chatService struct {
	registry      *flow.Registry
	detector      language.Detector
	completions   llm.CompletionProvider
	retrieval     *search.Engine
	conversations *memory.ConversationRepository
	tasks         *memory.TaskRepository
	notices       *memory.NoticeRepository
	bus           *events.Bus
	log           logger.ILogger

	temperature   float64
	maxTokens     int
	historyWindow int
}

type ChatServiceParams struct {
	Registry      *flow.Registry
	Detector      language.Detector
	Completions   llm.CompletionProvider
	Retrieval     *search.Engine
	Conversations *memory.ConversationRepository
	Tasks         *memory.TaskRepository
	Notices       *memory.NoticeRepository
	Bus           *events.Bus
	Logger        logger.ILogger
	Temperature   float64
	MaxTokens     int
	HistoryWindow int
}

func NewChatService(p ChatServiceParams) IChatService {
	if p.HistoryWindow <= 0 {
		p.HistoryWindow = 8
	}
	return &chatService{
		registry:      p.Registry,
		detector:      p.Detector,
		completions:   p.Completions,
		retrieval:     p.Retrieval,
		conversations: p.Conversations,
		tasks:         p.Tasks,
		notices:       p.Notices,
		bus:           p.Bus,
		log:           p.Logger,
		temperature:   p.Temperature,
		maxTokens:     p.MaxTokens,
		historyWindow: p.HistoryWindow,
	}
}

// SendChat runs one orchestrated turn: validate, append the user message and
// an assistant placeholder, detect language, retrieve grounding documents,
// complete, then patch the placeholder exactly once. Retrieval failures
// degrade to an ungrounded answer; completion failures fail the turn.
func (s *chatService) SendChat(ctx context.Context, userId string, req *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: empty message", rag.ErrInvalidInput)
	}
	if len([]rune(message)) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", rag.ErrInvalidInput, maxMessageLength)
	}

	def, err := s.registry.Resolve(req.FlowKey)
	if err != nil {
		return nil, err
	}

	conversationId := req.ConversationId
	if conversationId == "" {
		conversationId = uuid.New().String()
	}
	conv := s.conversations.GetOrCreate(conversationId, userId, def.Key)
	if conv.UserId != userId {
		return nil, fmt.Errorf("%w: conversation %q", rag.ErrNotInitialized, conversationId)
	}

	now := time.Now()
	state := task.New(uuid.New().String(), userId, def.Key, now)
	state, err = task.Start(state, TurnStepReceived, now)
	if err != nil {
		return nil, err
	}
	s.tasks.Save(state)

	userMsg := &store.ConversationMessage{
		Id:      uuid.New(),
		Role:    store.RoleUser,
		Content: message,
		Metadata: store.MessageMetadata{
			FlowKey:         def.Key,
			TimestampMillis: now.UnixMilli(),
		},
		CreatedAt: now,
	}
	if err := s.conversations.Append(conversationId, userMsg); err != nil {
		return nil, err
	}

	placeholder := &store.ConversationMessage{
		Id:      uuid.New(),
		Role:    store.RoleAssistant,
		Content: store.PlaceholderContent,
		Metadata: store.MessageMetadata{
			FlowKey:         def.Key,
			TimestampMillis: now.UnixMilli(),
		},
		CreatedAt: now,
	}
	if err := s.conversations.Append(conversationId, placeholder); err != nil {
		return nil, err
	}

	// Language detection never fails a turn; worst case it falls back to
	// the default language.
	state = s.advance(state, TurnStepDetecting)
	detected := language.Detection{MainLanguage: req.Language, IsReliable: true, Confidence: 1}
	if req.Language == "" {
		detected = s.detector.Detect(message)
	}

	// Flows without a retrieval partition get no grounding context at all;
	// the no-results marker is reserved for turns that actually searched.
	state = s.advance(state, TurnStepRetrieving)
	groundingContext := ""
	var citations []store.Citation
	if def.Retrieval != nil && s.retrieval != nil {
		groundingContext = search.NoResultsMarker
		result, retrieveErr := s.retrieval.Retrieve(ctx, def.Key, message, 0, -1)
		if retrieveErr != nil {
			s.log.Warn("ChatService", "retrieval degraded, answering without grounding", map[string]interface{}{
				"flow_key": def.Key,
				"error":    retrieveErr.Error(),
			})
			s.publish(ctx, events.BaseEvent{
				Type: events.TypeRetrievalDegraded,
				Data: map[string]interface{}{
					"user_id":  userId,
					"flow_key": def.Key,
					"error":    retrieveErr.Error(),
				},
				OccurredAt: time.Now(),
			})
		} else {
			groundingContext = result.FormattedContext
			citations = result.Citations
		}
	}

	state = s.advance(state, TurnStepCompleting)
	completion, err := s.completions.Complete(ctx, &llm.CompletionRequest{
		SystemPrompt:     def.PromptTemplate,
		UserMessage:      message,
		History:          s.history(conversationId, def.Key, userMsg.Id, placeholder.Id),
		GroundingContext: groundingContext,
		Temperature:      s.temperature,
		MaxTokens:        s.maxTokens,
	})
	if err != nil {
		s.failTurn(ctx, userId, conversationId, placeholder.Id, def.Key, detected.MainLanguage, state, err)
		return nil, err
	}

	state = s.advance(state, TurnStepFinalizing)
	replyMeta := store.MessageMetadata{
		FlowKey:          def.Key,
		Step:             store.StepRespond,
		DetectedLanguage: detected.MainLanguage,
		TimestampMillis:  time.Now().UnixMilli(),
		ModelId:          completion.ModelId,
		TokensUsed:       completion.Usage.TotalTokens,
	}
	if err := s.conversations.PatchAssistant(conversationId, placeholder.Id, completion.Content, replyMeta, citations); err != nil {
		return nil, err
	}

	if completed, cErr := task.Complete(state, time.Now()); cErr == nil {
		state = completed
	}
	s.tasks.Save(state)

	s.publish(ctx, events.BaseEvent{
		Type: events.TypeTurnCompleted,
		Data: map[string]interface{}{
			"user_id":         userId,
			"flow_key":        def.Key,
			"conversation_id": conversationId,
			"task_id":         state.TaskId,
		},
		OccurredAt: time.Now(),
	})

	reply := *placeholder
	return &dto.SendChatResponse{
		ConversationId:   conversationId,
		TaskId:           state.TaskId,
		TaskStatus:       string(state.Status),
		DetectedLanguage: detected.MainLanguage,
		Sent:             toMessageDTO(userMsg),
		Reply:            toMessageDTO(&reply),
	}, nil
}

func (s *chatService) GetTranscript(ctx context.Context, userId, conversationId, flowKey string) (*dto.TranscriptResponse, error) {
	conv, found := s.conversations.Get(conversationId)
	if !found {
		return nil, fmt.Errorf("%w: conversation %q", rag.ErrNotInitialized, conversationId)
	}
	if conv.UserId != userId {
		return nil, fmt.Errorf("%w: conversation %q", rag.ErrNotInitialized, conversationId)
	}

	messages := conv.Messages
	if flowKey != "" {
		if _, err := s.registry.Resolve(flowKey); err != nil {
			return nil, err
		}
		messages = s.conversations.FilterByFlow(conversationId, flowKey)
	}

	out := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, msg := range messages {
		out = append(out, *toMessageDTO(msg))
	}
	return &dto.TranscriptResponse{
		ConversationId: conversationId,
		FlowKey:        flowKey,
		Messages:       out,
	}, nil
}

func (s *chatService) GetTask(ctx context.Context, userId, taskId string) (*dto.TaskStatusResponse, error) {
	state, err := s.ownedTask(userId, taskId)
	if err != nil {
		return nil, err
	}
	return toTaskDTO(state), nil
}

// PauseTask flags a RUNNING task and records the transcript position so the
// panel can resume from it. The in-flight provider call is not cancelled.
func (s *chatService) PauseTask(ctx context.Context, userId, taskId, conversationId string) (*dto.TaskStatusResponse, error) {
	state, err := s.ownedTask(userId, taskId)
	if err != nil {
		return nil, err
	}

	messageCount := 0
	if conv, found := s.conversations.Get(conversationId); found && conv.UserId == userId {
		messageCount = len(conv.Messages)
	}

	paused, err := task.Pause(state, messageCount, time.Now())
	if err != nil {
		return nil, err
	}
	s.tasks.Save(paused)
	return toTaskDTO(paused), nil
}

func (s *chatService) ResumeTask(ctx context.Context, userId, taskId string) (*dto.TaskStatusResponse, error) {
	state, err := s.ownedTask(userId, taskId)
	if err != nil {
		return nil, err
	}
	resumed, err := task.Resume(state, time.Now())
	if err != nil {
		return nil, err
	}
	s.tasks.Save(resumed)
	return toTaskDTO(resumed), nil
}

// ownedTask loads a task and hides it from everyone but its owner. A foreign
// task id gets the same error as a missing one so ids cannot be probed.
func (s *chatService) ownedTask(userId, taskId string) (task.State, error) {
	state, err := s.tasks.Get(taskId)
	if err != nil || state.OwnerId != userId {
		return task.State{}, fmt.Errorf("%w: task %q", rag.ErrNotInitialized, taskId)
	}
	return state, nil
}

func (s *chatService) GetNotices(ctx context.Context, userId string, limit int) ([]dto.NoticeResponse, error) {
	recent := s.notices.Recent(userId, limit)
	out := make([]dto.NoticeResponse, 0, len(recent))
	for _, n := range recent {
		out = append(out, dto.NoticeResponse{
			Type:       n.Type,
			Data:       n.Data,
			OccurredAt: n.OccurredAt,
		})
	}
	return out, nil
}

// history maps the flow-scoped transcript tail to provider messages,
// excluding the current turn's pair and any unfinished placeholders.
func (s *chatService) history(conversationId, flowKey string, excludeIds ...uuid.UUID) []llm.Message {
	excluded := make(map[uuid.UUID]bool, len(excludeIds))
	for _, id := range excludeIds {
		excluded[id] = true
	}

	flowMessages := s.conversations.FilterByFlow(conversationId, flowKey)
	if len(flowMessages) > s.historyWindow {
		flowMessages = flowMessages[len(flowMessages)-s.historyWindow:]
	}

	var history []llm.Message
	for _, msg := range flowMessages {
		if excluded[msg.Id] || isUnpatchedPlaceholder(msg) || msg.Role == store.RoleTool {
			continue
		}
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return history
}

// isUnpatchedPlaceholder identifies in-flight assistant bubbles. Patched
// replies always carry a step, so a user message whose text happens to match
// the placeholder body is never confused with one.
func isUnpatchedPlaceholder(msg *store.ConversationMessage) bool {
	return msg.Role == store.RoleAssistant && msg.Metadata.Step == ""
}

func (s *chatService) advance(state task.State, step string) task.State {
	next, err := task.Advance(state, step, time.Now())
	if err != nil {
		// A pause raced with the turn; keep processing under the old step.
		return state
	}
	s.tasks.Save(next)
	return next
}

func (s *chatService) failTurn(ctx context.Context, userId, conversationId string, placeholderId uuid.UUID, flowKey, detectedLanguage string, state task.State, cause error) {
	meta := store.MessageMetadata{
		FlowKey:          flowKey,
		Step:             store.StepRespond,
		DetectedLanguage: detectedLanguage,
		TimestampMillis:  time.Now().UnixMilli(),
	}
	if err := s.conversations.PatchAssistant(conversationId, placeholderId, failureReply, meta, nil); err != nil {
		s.log.Error("ChatService", "failed to patch placeholder after turn failure", map[string]interface{}{
			"conversation_id": conversationId,
			"error":           err.Error(),
		})
	}

	if failed, err := task.Fail(state, time.Now()); err == nil {
		s.tasks.Save(failed)
		state = failed
	}

	s.log.Error("ChatService", "turn failed", map[string]interface{}{
		"flow_key": flowKey,
		"task_id":  state.TaskId,
		"error":    cause.Error(),
	})
	s.publish(ctx, events.BaseEvent{
		Type: events.TypeTurnFailed,
		Data: map[string]interface{}{
			"user_id":         userId,
			"flow_key":        flowKey,
			"conversation_id": conversationId,
			"task_id":         state.TaskId,
			"error":           cause.Error(),
		},
		OccurredAt: time.Now(),
	})
}

func (s *chatService) publish(ctx context.Context, evt events.BaseEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, evt); err != nil {
		s.log.Warn("ChatService", "event publish failed", map[string]interface{}{
			"type":  evt.Type,
			"error": err.Error(),
		})
	}
}

func toMessageDTO(msg *store.ConversationMessage) *dto.ChatMessageDTO {
	citations := make([]dto.CitationDTO, 0, len(msg.Citations))
	for _, c := range msg.Citations {
		citations = append(citations, dto.CitationDTO{
			Index:    c.Index,
			Title:    c.Title,
			SourceId: c.SourceId,
			Score:    c.Score,
		})
	}
	return &dto.ChatMessageDTO{
		Id:               msg.Id,
		Role:             msg.Role,
		Content:          msg.Content,
		FlowKey:          msg.Metadata.FlowKey,
		Step:             msg.Metadata.Step,
		DetectedLanguage: msg.Metadata.DetectedLanguage,
		ModelId:          msg.Metadata.ModelId,
		TokensUsed:       msg.Metadata.TokensUsed,
		Citations:        citations,
		CreatedAt:        msg.CreatedAt,
	}
}

func toTaskDTO(state task.State) *dto.TaskStatusResponse {
	return &dto.TaskStatusResponse{
		TaskId:      state.TaskId,
		Status:      string(state.Status),
		FlowKey:     state.FlowKey,
		CurrentStep: state.CurrentStep,
		UpdatedAt:   state.UpdatedAt,
	}
}
