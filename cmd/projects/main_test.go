package main

import (
	"context"
	"path/filepath"
	"testing"

	"media-index/internal/store"
)

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Plain command", "create", "create"},
		{"Hyphen and underscore kept", "my-cmd_2", "my-cmd_2"},
		{"Spaces replaced", "a b", "a_b"},
		{"Control characters replaced", "x\n\ty", "x__y"},
		{"Shell metacharacters replaced", "rm;ls|cat", "rm_ls_cat"},
		{"Empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeCommand(tt.input); got != tt.want {
				t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCreateAndListProjects(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	ctx := context.Background()

	if !createProject(ctx, s, []string{"demo"}) {
		t.Fatal("Expected create to succeed")
	}
	if createProject(ctx, s, []string{"demo"}) {
		t.Error("Expected duplicate create to fail")
	}
	if createProject(ctx, s, nil) {
		t.Error("Expected create without a name to fail")
	}
	if createProject(ctx, s, []string{"   "}) {
		t.Error("Expected create with a blank name to fail")
	}

	if !listProjects(ctx, s) {
		t.Error("Expected list to succeed")
	}

	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "demo" {
		t.Errorf("Expected the single demo project, got %v", projects)
	}
}
