package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ldi/tasklist/internal/store"
	"github.com/ldi/tasklist/pkg/models"
)

// NewServer creates an MCP server exposing the task operations as tools.
// Each tool performs exactly one store call; the server itself holds no
// state across calls.
func NewServer(st store.Store) *server.MCPServer {
	s := server.NewMCPServer("Tasklist", "0.1.0")

	s.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a new task."),
		mcp.WithString("title", mcp.Description("Task title (must not be blank)"), mcp.Required()),
		mcp.WithString("description", mcp.Description("Optional task description")),
	), createTaskHandler(st))

	s.AddTool(mcp.NewTool("get_task",
		mcp.WithDescription("Get a single task by id."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), getTaskHandler(st))

	s.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List all tasks in creation order."),
	), listTasksHandler(st))

	s.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update a task's title and/or description. Omitted fields keep their value."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithString("title", mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description")),
	), updateTaskHandler(st))

	s.AddTool(mcp.NewTool("set_task_completed",
		mcp.WithDescription("Mark a task completed or not completed."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
		mcp.WithBoolean("completed", mcp.Description("New completed state"), mcp.Required()),
	), setTaskCompletedHandler(st))

	s.AddTool(mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task permanently. Its id is never reused."),
		mcp.WithNumber("id", mcp.Description("Task id"), mcp.Required()),
	), deleteTaskHandler(st))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func taskResult(t *models.Task) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func createTaskHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title := mcp.ParseString(request, "title", "")

		var description *string
		args, _ := request.Params.Arguments.(map[string]any)
		if d, ok := args["description"].(string); ok {
			description = &d
		}

		t, err := st.CreateTask(ctx, title, description)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func getTaskHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		t, err := st.GetTask(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func listTasksHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tasks, err := st.ListTasks(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(map[string]any{"tasks": tasks})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func updateTaskHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		var patch models.TaskPatch
		args, _ := request.Params.Arguments.(map[string]any)
		if title, ok := args["title"].(string); ok {
			patch.Title = &title
		}
		if description, ok := args["description"].(string); ok {
			patch.Description = &description
		}

		t, err := st.UpdateTask(ctx, id, patch)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func setTaskCompletedHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))
		completed := mcp.ParseBoolean(request, "completed", false)

		t, err := st.SetTaskCompleted(ctx, id, completed)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return taskResult(t)
	}
}

func deleteTaskHandler(st store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := int64(mcp.ParseInt(request, "id", 0))

		if err := st.DeleteTask(ctx, id); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %d deleted", id)), nil
	}
}
