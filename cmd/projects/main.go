package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"media-index/internal/store"
)

const (
	// Default timeout for store operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/database"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	// Create a context that cancels on interrupt signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	// Get database directory from env or default
	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "index.db")

	s, err := store.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open store: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}
	defer func() {
		if err := s.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
		}
	}()

	ok := true
	switch command {
	case "create":
		ok = createProject(ctx, s, os.Args[2:])
	case "list":
		ok = listProjects(ctx, s)
	case "delete":
		ok = deleteProject(ctx, s, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage()
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage() {
	fmt.Println("Media Index Project Management")
	fmt.Println("")
	fmt.Println("Usage: projects <command> [arguments]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  create <name>  - Create a project")
	fmt.Println("  list           - List projects")
	fmt.Println("  delete <name>  - Delete a project and all its indexed data")
	fmt.Println("")
	fmt.Println("Environment:")
	fmt.Printf("  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func createProject(ctx context.Context, s *store.Store, args []string) bool {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(os.Stderr, "Usage: projects create <name>")
		return false
	}
	name := strings.TrimSpace(args[0])

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	project, err := s.CreateProject(ctx, name)
	if errors.Is(err, store.ErrConflict) {
		fmt.Fprintf(os.Stderr, "Error: a project named %q already exists\n", name)
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create project: %v\n", err)
		return false
	}

	fmt.Printf("Created project %q (%s)\n", project.Name, project.ID)
	return true
}

func listProjects(ctx context.Context, s *store.Store) bool {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	projects, err := s.ListProjects(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to list projects: %v\n", err)
		return false
	}

	if len(projects) == 0 {
		fmt.Println("No projects.")
		return true
	}

	fmt.Printf("%-36s  %-20s  %s\n", "ID", "CREATED", "NAME")
	for _, p := range projects {
		fmt.Printf("%-36s  %-20s  %s\n", p.ID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.Name)
	}
	return true
}

func deleteProject(ctx context.Context, s *store.Store, args []string) bool {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(os.Stderr, "Usage: projects delete <name>")
		return false
	}
	name := strings.TrimSpace(args[0])

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	project, err := s.GetProjectByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintf(os.Stderr, "Error: no project named %q\n", name)
		return false
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to look up project: %v\n", err)
		return false
	}

	fmt.Printf("Delete project %q and all its folders, media, and tags? [y/N]: ", project.Name)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil || !strings.EqualFold(answer, "y") {
		fmt.Println("Aborted.")
		return false
	}

	if err := s.DeleteProject(ctx, project.ID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete project: %v\n", err)
		return false
	}

	fmt.Printf("Deleted project %q\n", project.Name)
	return true
}
