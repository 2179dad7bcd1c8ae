package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ldi/tasklist/pkg/models"
)

func TestSnapshotRoundTrip(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()

	desc := "with details"
	if _, err := src.CreateTask(ctx, "keep me", &desc); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	doomed, err := src.CreateTask(ctx, "delete me", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	third, err := src.CreateTask(ctx, "done already", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}
	if _, err := src.SetTaskCompleted(ctx, third.ID, true); err != nil {
		t.Fatalf("Failed to complete task: %v", err)
	}
	if err := src.DeleteTask(ctx, doomed.ID); err != nil {
		t.Fatalf("Failed to delete task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := src.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	dst := openTestDB(t)
	if err := dst.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to import snapshot: %v", err)
	}

	want, err := src.ListTasks(ctx)
	if err != nil {
		t.Fatalf("Failed to list source tasks: %v", err)
	}
	got, err := dst.ListTasks(ctx)
	if err != nil {
		t.Fatalf("Failed to list imported tasks: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Round trip mismatch (-exported +imported):\n%s", diff)
	}

	// The deleted task's id must not come back after a restore.
	created, err := dst.CreateTask(ctx, "fresh after import", nil)
	if err != nil {
		t.Fatalf("Failed to create task after import: %v", err)
	}
	if created.ID <= third.ID {
		t.Errorf("Expected id above %d after import, got %d", third.ID, created.ID)
	}
}

func TestSnapshotImportIsUpsert(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()

	task, err := src.CreateTask(ctx, "exported title", nil)
	if err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := src.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	// Diverge, then re-import: the snapshot wins.
	stale := "local edit"
	if _, err := src.UpdateTask(ctx, task.ID, models.TaskPatch{Title: &stale}); err != nil {
		t.Fatalf("Failed to update task: %v", err)
	}
	if err := src.ImportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to re-import snapshot: %v", err)
	}

	fetched, err := src.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("Failed to get task: %v", err)
	}
	if fetched.Title != "exported title" {
		t.Errorf("Expected snapshot to win on import, got %q", fetched.Title)
	}
}

func TestExportSnapshotFormat(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := db.CreateTask(ctx, "inspect me", nil); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := db.ExportSnapshot(ctx, path); err != nil {
		t.Fatalf("Failed to export snapshot: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected meta line plus one task line, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], `"record_type":"meta"`) {
		t.Errorf("Expected first line to be meta, got %s", lines[0])
	}
	if !strings.Contains(lines[1], `"record_type":"task"`) || !strings.Contains(lines[1], "inspect me") {
		t.Errorf("Expected task line with title, got %s", lines[1])
	}
}

func TestEnableAutoSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	db.EnableAutoSnapshot(path)

	if _, err := db.CreateTask(ctx, "auto snapshotted", nil); err != nil {
		t.Fatalf("Failed to create task: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected snapshot file after write: %v", err)
	}
	if !strings.Contains(string(data), "auto snapshotted") {
		t.Errorf("Expected snapshot to contain the new task")
	}
}
