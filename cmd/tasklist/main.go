package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ldi/tasklist/internal/db"
	"github.com/ldi/tasklist/internal/httpapi"
	"github.com/ldi/tasklist/internal/mcp"
	"github.com/ldi/tasklist/internal/ui"
	"github.com/ldi/tasklist/internal/ui/components"
)

var (
	dbPath       string
	snapshotPath string
)

func main() {
	flag.StringVar(&dbPath, "db-path", ".tasklist/tasklist.db", "Path to database file")
	flag.StringVar(&snapshotPath, "snapshot-path", ".tasklist/snapshot.jsonl", "Path to snapshot file")
	flag.Parse()

	var command string
	var args []string

	if flag.NArg() == 0 {
		selected, err := ui.RunMenu()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running menu: %v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			os.Exit(0)
		}
		command = selected
		args = []string{}
	} else {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	var err error
	switch command {
	case "init":
		err = runInit(args)
	case "serve":
		err = runServe(args)
	case "mcp":
		err = runMCP(args)
	case "list":
		err = runList(args)
	case "add":
		err = runAdd(args)
	case "complete":
		err = runComplete(args)
	case "delete":
		err = runDelete(args)
	case "status":
		err = runStatus(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openDatabase opens and initializes the store, wiring snapshot export into
// every write.
func openDatabase(ctx context.Context) (*db.DB, error) {
	database, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := database.Init(ctx); err != nil {
		database.Close()
		return nil, err
	}
	database.EnableAutoSnapshot(snapshotPath)
	return database, nil
}

func runInit(args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	dataDir := filepath.Join(targetDir, ".tasklist")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create .tasklist directory: %w", err)
	}
	fmt.Println("✓ Created .tasklist/ directory")

	gitignorePath := filepath.Join(dataDir, ".gitignore")
	if err := os.WriteFile(gitignorePath, []byte("tasklist.db*\n"), 0644); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	fmt.Println("✓ Created .tasklist/.gitignore")

	// Default paths if not overridden by flags
	finalDBPath := dbPath
	if dbPath == ".tasklist/tasklist.db" {
		finalDBPath = filepath.Join(dataDir, "tasklist.db")
	}
	finalSnapshotPath := snapshotPath
	if snapshotPath == ".tasklist/snapshot.jsonl" {
		finalSnapshotPath = filepath.Join(dataDir, "snapshot.jsonl")
	}

	database, err := db.Open(finalDBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx := context.Background()
	if err := database.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	fmt.Printf("✓ Initialized database at %s\n", finalDBPath)

	// Restore an existing snapshot so tasks survive a lost database file.
	if _, err := os.Stat(finalSnapshotPath); err == nil {
		if err := database.ImportSnapshot(ctx, finalSnapshotPath); err != nil {
			return fmt.Errorf("failed to import snapshot: %w", err)
		}
		fmt.Printf("✓ Imported snapshot from %s\n", finalSnapshotPath)
	}

	fmt.Println("✓ Tasklist initialized successfully")
	return nil
}

func runServe(args []string) error {
	serveFlags := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := serveFlags.String("port", "8080", "Port to listen on")
	if err := serveFlags.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	srv := httpapi.NewServer(database)

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Listening on :%s\n", *port)
		errCh <- srv.Start(fmt.Sprintf(":%s", *port))
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}

func runMCP(args []string) error {
	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	s := mcp.NewServer(database)
	return mcp.Serve(s)
}

func runAdd(args []string) error {
	addFlags := flag.NewFlagSet("add", flag.ContinueOnError)
	desc := addFlags.String("desc", "", "Task description")
	if err := addFlags.Parse(args); err != nil {
		return err
	}

	title := strings.Join(addFlags.Args(), " ")

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	var description *string
	if *desc != "" {
		description = desc
	}

	task, err := database.CreateTask(ctx, title, description)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Created task #%d: %s\n", task.ID, task.Title)
	return nil
}

func runList(args []string) error {
	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	tasks, err := database.ListTasks(ctx)
	if err != nil {
		return err
	}

	fmt.Print(components.NewTaskList(tasks).View())
	return nil
}

func runComplete(args []string) error {
	completeFlags := flag.NewFlagSet("complete", flag.ContinueOnError)
	undo := completeFlags.Bool("undo", false, "Mark the task as not completed")
	if err := completeFlags.Parse(args); err != nil {
		return err
	}

	id, err := parseIDArg(completeFlags.Args())
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	task, err := database.SetTaskCompleted(ctx, id, !*undo)
	if err != nil {
		return err
	}

	if task.Completed {
		fmt.Printf("✓ Completed task #%d: %s\n", task.ID, task.Title)
	} else {
		fmt.Printf("✓ Reopened task #%d: %s\n", task.ID, task.Title)
	}
	return nil
}

func runDelete(args []string) error {
	id, err := parseIDArg(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.DeleteTask(ctx, id); err != nil {
		return err
	}

	fmt.Printf("✓ Deleted task #%d\n", id)
	return nil
}

func runStatus(args []string) error {
	ctx := context.Background()
	database, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer database.Close()

	tasks, err := database.ListTasks(ctx)
	if err != nil {
		return err
	}

	completed := 0
	for _, t := range tasks {
		if t.Completed {
			completed++
		}
	}

	fmt.Println("Tasklist Status")
	fmt.Println("===============")
	fmt.Printf("Total Tasks: %d\n", len(tasks))
	fmt.Printf("Completed:   %d\n", completed)
	fmt.Printf("Open:        %d\n", len(tasks)-completed)

	return nil
}

func parseIDArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("task id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task id: %s", args[0])
	}
	return id, nil
}
