package memory

import (
	"errors"
	"sync"
	"time"

	"ai-flowchat-be/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrAlreadyPatched       = errors.New("assistant message already patched")
)

// ConversationRepository keeps transcripts in process memory. Entries expire
// after an idle hour, matching the session-scoped lifetime of a chat panel.
// A single mutex guards all conversations; transcript appends are short and
// contention is per-user, so finer locking buys nothing.
type ConversationRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewConversationRepository() *ConversationRepository {
	// Default expiration 1 hour, purge sweep every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ConversationRepository{cache: c}
}

// GetOrCreate returns the conversation for the id, creating an empty one
// bound to the user and flow on first touch.
func (r *ConversationRepository) GetOrCreate(conversationId, userId, flowKey string) *store.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(conversationId); found {
		return x.(*store.Conversation)
	}
	conv := &store.Conversation{
		Id:      conversationId,
		UserId:  userId,
		FlowKey: flowKey,
	}
	r.cache.Set(conversationId, conv, cache.DefaultExpiration)
	return conv
}

func (r *ConversationRepository) Get(conversationId string) (*store.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(conversationId); found {
		return x.(*store.Conversation), true
	}
	return nil, false
}

// Append adds a message to the transcript and refreshes the idle timer.
func (r *ConversationRepository) Append(conversationId string, msg *store.ConversationMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversationId)
	if !found {
		return ErrConversationNotFound
	}
	conv := x.(*store.Conversation)
	conv.Messages = append(conv.Messages, msg)
	r.cache.Set(conversationId, conv, cache.DefaultExpiration)
	return nil
}

// PatchAssistant replaces the placeholder body of an assistant message with
// final content, metadata and citations. Each placeholder is patched once;
// a second patch is a bug in the caller.
func (r *ConversationRepository) PatchAssistant(conversationId string, messageId uuid.UUID, content string, metadata store.MessageMetadata, citations []store.Citation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversationId)
	if !found {
		return ErrConversationNotFound
	}
	conv := x.(*store.Conversation)
	for _, msg := range conv.Messages {
		if msg.Id != messageId {
			continue
		}
		if msg.Role != store.RoleAssistant {
			return ErrMessageNotFound
		}
		if msg.Content != store.PlaceholderContent {
			return ErrAlreadyPatched
		}
		msg.Content = content
		msg.Metadata = metadata
		msg.Citations = citations
		return nil
	}
	return ErrMessageNotFound
}

// RecentWindow returns up to n most recent messages in chronological order.
func (r *ConversationRepository) RecentWindow(conversationId string, n int) []*store.ConversationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversationId)
	if !found {
		return nil
	}
	conv := x.(*store.Conversation)
	if n <= 0 || n >= len(conv.Messages) {
		return append([]*store.ConversationMessage{}, conv.Messages...)
	}
	return append([]*store.ConversationMessage{}, conv.Messages[len(conv.Messages)-n:]...)
}

// FilterByFlow returns the messages whose metadata carries the given flow
// key, preserving transcript order.
func (r *ConversationRepository) FilterByFlow(conversationId, flowKey string) []*store.ConversationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(conversationId)
	if !found {
		return nil
	}
	conv := x.(*store.Conversation)
	var filtered []*store.ConversationMessage
	for _, msg := range conv.Messages {
		if msg.Metadata.FlowKey == flowKey {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

func (r *ConversationRepository) Delete(conversationId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(conversationId)
}
