package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ldi/tasklist/internal/store"
	"github.com/ldi/tasklist/pkg/models"
)

var _ store.Store = (*DB)(nil)

// CreateTask inserts a new task. The id comes from the AUTOINCREMENT
// sequence, so it is unique for the lifetime of the database.
func (db *DB) CreateTask(ctx context.Context, title string, description *string) (*models.Task, error) {
	valid, err := store.ValidateTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &models.Task{
		Title:       valid,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	query := `
		INSERT INTO tasks (title, description, completed, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?)
		RETURNING id
	`
	err = db.QueryRowContext(ctx, query, t.Title, t.Description, t.CreatedAt, t.UpdatedAt).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	db.triggerChange(ctx)
	return t, nil
}

// GetTask retrieves a task by its id.
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return db.getTask(ctx, db.DB, id)
}

func (db *DB) getTask(ctx context.Context, exec executor, id int64) (*models.Task, error) {
	query := `
		SELECT id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`
	t := &models.Task{}
	var completed int
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Title, &t.Description, &completed, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	t.Completed = completed == 1
	return t, nil
}

// ListTasks returns all tasks in insertion order.
func (db *DB) ListTasks(ctx context.Context) ([]*models.Task, error) {
	// Ids are allocated in strictly increasing order, so ordering by id is
	// insertion order.
	query := `
		SELECT id, title, description, completed, created_at, updated_at
		FROM tasks
		ORDER BY id ASC
	`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		t := &models.Task{}
		var completed int
		err := rows.Scan(&t.ID, &t.Title, &t.Description, &completed, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Completed = completed == 1
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return tasks, nil
}

// UpdateTask applies the non-nil fields of patch to an existing task and
// refreshes updated_at. Read and write happen in one transaction so the
// update is atomic against concurrent writers.
func (db *DB) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if patch.Title != nil {
		valid, err := store.ValidateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &valid
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	t, err := db.getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = patch.Description
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	t.UpdatedAt = time.Now().UTC()

	completed := 0
	if t.Completed {
		completed = 1
	}
	query := `
		UPDATE tasks
		SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.ExecContext(ctx, query, t.Title, t.Description, completed, t.UpdatedAt, t.ID); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	db.triggerChange(ctx)
	return t, nil
}

// SetTaskCompleted sets the completed flag. Setting an already-matching value
// still refreshes updated_at and succeeds.
func (db *DB) SetTaskCompleted(ctx context.Context, id int64, completed bool) (*models.Task, error) {
	flag := 0
	if completed {
		flag = 1
	}

	query := `
		UPDATE tasks
		SET completed = ?, updated_at = ?
		WHERE id = ?
		RETURNING id, title, description, completed, created_at, updated_at
	`
	t := &models.Task{}
	var stored int
	err := db.QueryRowContext(ctx, query, flag, time.Now().UTC(), id).Scan(
		&t.ID, &t.Title, &t.Description, &stored, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set task completed: %w", err)
	}

	t.Completed = stored == 1
	db.triggerChange(ctx)
	return t, nil
}

// DeleteTask deletes a task by its id. The id is never reissued afterwards.
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.NewNotFoundError(id)
	}

	db.triggerChange(ctx)
	return nil
}

// LastAllocatedID returns the highest id ever handed out, including ids of
// tasks that have since been deleted. Zero means no task was ever created.
func (db *DB) LastAllocatedID(ctx context.Context) (int64, error) {
	var last int64
	query := `SELECT COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'tasks'), 0)`
	if err := db.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read id sequence: %w", err)
	}
	return last, nil
}
