package components

import (
	"strings"
	"testing"

	"github.com/ldi/tasklist/pkg/models"
)

func TestTaskListView(t *testing.T) {
	desc := "with a note"
	list := NewTaskList([]*models.Task{
		{ID: 1, Title: "open task", Description: &desc},
		{ID: 2, Title: "done task", Completed: true},
	})

	view := list.View()

	if !strings.Contains(view, "Tasks") {
		t.Error("expected title in view")
	}
	if !strings.Contains(view, "[ ] #1 open task") {
		t.Errorf("expected unchecked open task, got:\n%s", view)
	}
	if !strings.Contains(view, "[x] #2 done task") {
		t.Errorf("expected checked done task, got:\n%s", view)
	}
	if !strings.Contains(view, "with a note") {
		t.Error("expected description rendered")
	}
}

func TestTaskListViewEmpty(t *testing.T) {
	view := NewTaskList(nil).View()
	if !strings.Contains(view, "no tasks yet") {
		t.Errorf("expected placeholder for empty list, got:\n%s", view)
	}
}
