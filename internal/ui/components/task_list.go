package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ldi/tasklist/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	openTaskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	doneTaskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Padding(0, 1)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			PaddingLeft(7)

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true).
				Padding(0, 1)
)

// TaskList renders tasks for terminal output, done tasks in green with a
// checked box.
type TaskList struct {
	Tasks []*models.Task
	Title string
}

func NewTaskList(tasks []*models.Task) *TaskList {
	return &TaskList{
		Tasks: tasks,
		Title: "Tasks",
	}
}

func (c *TaskList) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render(c.Title))
	s.WriteString("\n")

	if len(c.Tasks) == 0 {
		s.WriteString(placeholderStyle.Render("no tasks yet"))
		s.WriteString("\n")
		return s.String()
	}

	for _, t := range c.Tasks {
		line := fmt.Sprintf("[%s] #%d %s", checkbox(t.Completed), t.ID, t.Title)
		if t.Completed {
			s.WriteString(doneTaskStyle.Render(line))
		} else {
			s.WriteString(openTaskStyle.Render(line))
		}
		s.WriteString("\n")

		if t.Description != nil && *t.Description != "" {
			s.WriteString(detailStyle.Render(*t.Description))
			s.WriteString("\n")
		}
	}

	return s.String()
}

func checkbox(done bool) string {
	if done {
		return "x"
	}
	return " "
}
