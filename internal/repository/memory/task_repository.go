package memory

import (
	"errors"
	"time"

	"ai-flowchat-be/pkg/rag/task"

	"github.com/patrickmn/go-cache"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository holds turn task snapshots. Snapshots are immutable values,
// so swapping the stored copy under go-cache's own locking is enough.
type TaskRepository struct {
	cache *cache.Cache
}

func NewTaskRepository() *TaskRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &TaskRepository{cache: c}
}

func (r *TaskRepository) Save(state task.State) {
	r.cache.Set(state.TaskId, state, cache.DefaultExpiration)
}

func (r *TaskRepository) Get(taskId string) (task.State, error) {
	if x, found := r.cache.Get(taskId); found {
		return x.(task.State), nil
	}
	return task.State{}, ErrTaskNotFound
}

func (r *TaskRepository) Delete(taskId string) {
	r.cache.Delete(taskId)
}
