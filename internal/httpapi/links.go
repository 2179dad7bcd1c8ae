package httpapi

import (
	"fmt"

	"github.com/ldi/tasklist/pkg/models"
)

// HAL-style hypermedia: every task resource carries links to itself, its
// mutations and the collection.

type link struct {
	Href string `json:"href"`
}

type taskResource struct {
	*models.Task
	Links map[string]link `json:"_links"`
}

func newTaskResource(t *models.Task) taskResource {
	self := fmt.Sprintf("/tasks/%d", t.ID)
	return taskResource{
		Task: t,
		Links: map[string]link{
			"self":       {Href: self},
			"update":     {Href: self},
			"complete":   {Href: self + "/complete"},
			"delete":     {Href: self},
			"collection": {Href: "/tasks"},
		},
	}
}

func newTaskResources(tasks []*models.Task) []taskResource {
	out := make([]taskResource, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResource(t))
	}
	return out
}
