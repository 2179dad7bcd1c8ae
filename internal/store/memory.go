package store

import (
	"context"
	"sync"
	"time"

	"github.com/ldi/tasklist/pkg/models"
)

// MemoryStore keeps all tasks in process memory. Every operation runs under
// one exclusive lock, so id allocation and insertion are indivisible and no
// operation observes another mid-flight.
//
// Callers only ever receive copies of stored records, never references into
// the internal map.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*models.Task
	order  []int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[int64]*models.Task)}
}

func (s *MemoryStore) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	valid, err := ValidateTitle(title)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The counter only ever advances, so ids are never reissued even after
	// a delete.
	s.nextID++
	now := time.Now().UTC()
	t := &models.Task{
		ID:          s.nextID,
		Title:       valid,
		Description: cloneString(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)

	return copyTask(t), nil
}

func (s *MemoryStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}
	return copyTask(t), nil
}

func (s *MemoryStore) ListTasks(ctx context.Context) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make([]*models.Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, copyTask(s.tasks[id]))
	}
	return tasks, nil
}

func (s *MemoryStore) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		valid, err := ValidateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &valid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = cloneString(patch.Description)
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = time.Now().UTC()

	return copyTask(t), nil
}

func (s *MemoryStore) SetTaskCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, NewNotFoundError(id)
	}

	t.Completed = completed
	t.UpdatedAt = time.Now().UTC()

	return copyTask(t), nil
}

func (s *MemoryStore) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return NewNotFoundError(id)
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyTask(t *models.Task) *models.Task {
	c := *t
	c.Description = cloneString(t.Description)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
