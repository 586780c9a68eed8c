package memory

import (
	"sync"
	"time"

	"ai-flowchat-be/pkg/events"

	"github.com/patrickmn/go-cache"
)

const maxNoticesPerUser = 50

// NoticeRepository buffers recent user-facing notices so the panel can poll
// them. Oldest entries fall off once a user's buffer is full.
type NoticeRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewNoticeRepository() *NoticeRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &NoticeRepository{cache: c}
}

func (r *NoticeRepository) Push(userId string, notice events.BaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var notices []events.BaseEvent
	if x, found := r.cache.Get(userId); found {
		notices = x.([]events.BaseEvent)
	}
	notices = append(notices, notice)
	if len(notices) > maxNoticesPerUser {
		notices = notices[len(notices)-maxNoticesPerUser:]
	}
	r.cache.Set(userId, notices, cache.DefaultExpiration)
}

// Recent returns up to limit newest notices, newest first.
func (r *NoticeRepository) Recent(userId string, limit int) []events.BaseEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	x, found := r.cache.Get(userId)
	if !found {
		return nil
	}
	notices := x.([]events.BaseEvent)
	if limit <= 0 || limit > len(notices) {
		limit = len(notices)
	}
	out := make([]events.BaseEvent, 0, limit)
	for i := len(notices) - 1; i >= len(notices)-limit; i-- {
		out = append(out, notices[i])
	}
	return out
}

func (r *NoticeRepository) Clear(userId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(userId)
}
