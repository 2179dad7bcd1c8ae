package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ldi/tasklist/internal/db"
)

func setupTestDB(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	dataDir := filepath.Join(tmpDir, ".tasklist")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatalf("failed to create .tasklist dir: %v", err)
	}

	oldDBPath, oldSnapshotPath := dbPath, snapshotPath
	dbPath = filepath.Join(dataDir, "tasklist.db")
	snapshotPath = filepath.Join(dataDir, "snapshot.jsonl")
	t.Cleanup(func() {
		dbPath, snapshotPath = oldDBPath, oldSnapshotPath
	})

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	desc := "two percent"
	if _, err := database.CreateTask(ctx, "Buy milk", &desc); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if _, err := database.CreateTask(ctx, "Walk dog", nil); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}
	if _, err := database.SetTaskCompleted(ctx, 2, true); err != nil {
		t.Fatalf("failed to complete task: %v", err)
	}

	return tmpDir
}

func captureStdout(t *testing.T, fn func() error) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := fn()
	w.Close()
	os.Stdout = oldStdout

	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestList(t *testing.T) {
	setupTestDB(t)

	output := captureStdout(t, func() error {
		return runList([]string{})
	})

	if !strings.Contains(output, "Buy milk") {
		t.Errorf("output missing open task: %s", output)
	}
	if !strings.Contains(output, "[x] #2 Walk dog") {
		t.Errorf("output missing completed task: %s", output)
	}
}

func TestAdd(t *testing.T) {
	setupTestDB(t)

	output := captureStdout(t, func() error {
		return runAdd([]string{"-desc", "from the garage", "Fix", "the", "bike"})
	})

	if !strings.Contains(output, "Created task #3: Fix the bike") {
		t.Errorf("unexpected add output: %s", output)
	}

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer database.Close()

	task, err := database.GetTask(context.Background(), 3)
	if err != nil {
		t.Fatalf("failed to read created task: %v", err)
	}
	if task.Description == nil || *task.Description != "from the garage" {
		t.Errorf("description not stored: %+v", task)
	}
}

func TestAddRejectsBlankTitle(t *testing.T) {
	setupTestDB(t)

	if err := runAdd([]string{"   "}); err == nil {
		t.Error("expected error for blank title")
	}
}

func TestCompleteAndUndo(t *testing.T) {
	setupTestDB(t)

	output := captureStdout(t, func() error {
		return runComplete([]string{"1"})
	})
	if !strings.Contains(output, "Completed task #1") {
		t.Errorf("unexpected complete output: %s", output)
	}

	output = captureStdout(t, func() error {
		return runComplete([]string{"-undo", "1"})
	})
	if !strings.Contains(output, "Reopened task #1") {
		t.Errorf("unexpected undo output: %s", output)
	}

	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to reopen db: %v", err)
	}
	defer database.Close()

	task, err := database.GetTask(context.Background(), 1)
	if err != nil {
		t.Fatalf("failed to read task: %v", err)
	}
	if task.Completed {
		t.Error("expected task to be open after undo")
	}
}

func TestDelete(t *testing.T) {
	setupTestDB(t)

	output := captureStdout(t, func() error {
		return runDelete([]string{"1"})
	})
	if !strings.Contains(output, "Deleted task #1") {
		t.Errorf("unexpected delete output: %s", output)
	}

	if err := runDelete([]string{"1"}); err == nil {
		t.Error("expected error deleting a missing task")
	}

	if err := runDelete([]string{"nope"}); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestStatus(t *testing.T) {
	setupTestDB(t)

	output := captureStdout(t, func() error {
		return runStatus([]string{})
	})

	if !strings.Contains(output, "Total Tasks: 2") {
		t.Errorf("output missing total count: %s", output)
	}
	if !strings.Contains(output, "Completed:   1") {
		t.Errorf("output missing completed count: %s", output)
	}
	if !strings.Contains(output, "Open:        1") {
		t.Errorf("output missing open count: %s", output)
	}
}
