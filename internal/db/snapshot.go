package db

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const snapshotVersion = 1

type snapshotMeta struct {
	RecordType string    `json:"record_type"`
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	LastID     int64     `json:"last_id"`
}

type snapshotTask struct {
	RecordType  string    `json:"record_type"`
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EnableAutoSnapshot sets up a hook that automatically exports a snapshot
// to the given path after every successful write operation.
func (db *DB) EnableAutoSnapshot(path string) {
	db.SetOnChange(func(ctx context.Context) {
		// Hooks are best-effort: a failed export must not fail the write
		// that triggered it.
		_ = db.ExportSnapshot(ctx, path)
	})
}

// ExportSnapshot writes every task as one JSON line, preceded by a meta line
// carrying the id high-water mark. The file is replaced atomically via a
// temporary file.
func (db *DB) ExportSnapshot(ctx context.Context, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "snapshot-*.jsonl")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempFile.Name())
		}
	}()

	lastID, err := db.LastAllocatedID(ctx)
	if err != nil {
		return err
	}

	meta := snapshotMeta{
		RecordType: "meta",
		Version:    snapshotVersion,
		ExportedAt: time.Now().UTC(),
		LastID:     lastID,
	}
	if err := writeSnapshotLine(tempFile, meta); err != nil {
		return err
	}

	tasks, err := db.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		line := snapshotTask{
			RecordType:  "task",
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Completed:   t.Completed,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if err := writeSnapshotLine(tempFile, line); err != nil {
			return err
		}
	}

	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	filename := tempFile.Name()
	tempFile = nil // Prevent defer from removing it

	if err := os.Rename(filename, path); err != nil {
		os.Remove(filename)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func writeSnapshotLine(f *os.File, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot line: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write snapshot line: %w", err)
	}
	return nil
}

// ImportSnapshot reads a JSONL snapshot and populates the database. Records
// are upserted by id inside one transaction, and the AUTOINCREMENT sequence
// is raised to the snapshot's high-water mark so ids of tasks deleted before
// the export are never reissued.
func (db *DB) ImportSnapshot(ctx context.Context, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot file: %w", err)
	}
	defer file.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lastID int64

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var base struct {
			RecordType string `json:"record_type"`
		}
		if err := json.Unmarshal(line, &base); err != nil {
			return fmt.Errorf("failed to unmarshal base record: %w", err)
		}

		switch base.RecordType {
		case "meta":
			var meta snapshotMeta
			if err := json.Unmarshal(line, &meta); err != nil {
				return fmt.Errorf("failed to unmarshal meta: %w", err)
			}
			if meta.LastID > lastID {
				lastID = meta.LastID
			}

		case "task":
			var t snapshotTask
			if err := json.Unmarshal(line, &t); err != nil {
				return fmt.Errorf("failed to unmarshal task: %w", err)
			}

			completed := 0
			if t.Completed {
				completed = 1
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tasks (id, title, description, completed, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					title = excluded.title,
					description = excluded.description,
					completed = excluded.completed,
					created_at = excluded.created_at,
					updated_at = excluded.updated_at`,
				t.ID, t.Title, t.Description, completed, t.CreatedAt, t.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to sync task %d: %w", t.ID, err)
			}
			if t.ID > lastID {
				lastID = t.ID
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	if lastID > 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE sqlite_sequence SET seq = ? WHERE name = 'tasks' AND seq < ?`, lastID, lastID)
		if err != nil {
			return fmt.Errorf("failed to raise id sequence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sqlite_sequence (name, seq)
			SELECT 'tasks', ?
			WHERE NOT EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = 'tasks')`, lastID)
		if err != nil {
			return fmt.Errorf("failed to seed id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	db.triggerChange(ctx)
	return nil
}
