package store

import (
	"context"
	"strings"

	"github.com/ldi/tasklist/pkg/models"
)

// Store is the task persistence interface. It abstracts the storage backend
// so callers work the same against the in-memory store and the SQLite-backed
// store in internal/db.
//
// Every operation is atomic with respect to every other: no caller ever
// observes a partially applied mutation.
type Store interface {
	// CreateTask allocates a fresh id, stamps timestamps and stores a new
	// task. Returns ValidationError if the title is empty or blank.
	CreateTask(ctx context.Context, title string, description *string) (*models.Task, error)

	// GetTask retrieves a task by id. Returns NotFoundError if absent.
	GetTask(ctx context.Context, id int64) (*models.Task, error)

	// ListTasks returns all tasks in insertion order. An empty slice is a
	// valid result.
	ListTasks(ctx context.Context) ([]*models.Task, error)

	// UpdateTask applies the non-nil fields of patch and refreshes
	// updated_at. An empty patch still refreshes updated_at. Returns
	// NotFoundError if absent, ValidationError if a supplied title is blank.
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)

	// SetTaskCompleted sets the completed flag. Idempotent: setting an
	// already-matching value still refreshes updated_at and succeeds.
	SetTaskCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error)

	// DeleteTask removes a task permanently. The id is never reissued.
	DeleteTask(ctx context.Context, id int64) error
}

// ValidateTitle trims a client-supplied title and rejects blank values.
func ValidateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", NewValidationError("title", "must not be empty")
	}
	return trimmed, nil
}
