//go:build integration
// +build integration

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/backup"
	"github.com/RyanGreenup/lilium-sub000/pkg/exporter"
	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

func newTestService(t *testing.T, dir string) *service.Service {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	svc, err := service.New(&service.Config{DataDir: dir}, logrus.NewEntry(logger))
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestIntegration(t *testing.T) {
	// Skip if not running integration tests
	if os.Getenv("RUN_INTEGRATION_TESTS") == "" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=1 to run.")
	}

	ctx := context.Background()
	tmpDir := t.TempDir()
	svc := newTestService(t, filepath.Join(tmpDir, "data"))

	var projects *models.Folder
	var note *models.Note

	// Test 1: Build a small tree
	t.Run("BuildTree", func(t *testing.T) {
		var err error
		projects, err = svc.CreateFolder(ctx, "alice", "Projects", "")
		if err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		lilium, err := svc.CreateFolder(ctx, "alice", "lilium", projects.ID)
		if err != nil {
			t.Fatalf("Failed to create folder: %v", err)
		}
		note, err = svc.CreateNote(ctx, "alice", models.NoteInput{
			Title: "todo", Content: "write the exporter", ParentID: lilium.ID,
		})
		if err != nil {
			t.Fatalf("Failed to create note: %v", err)
		}
		if note.Path != "Projects/lilium/todo.md" {
			t.Errorf("Expected path Projects/lilium/todo.md, got %s", note.Path)
		}
	})

	// Test 2: Renaming the top folder cascades to the note
	t.Run("RenameCascade", func(t *testing.T) {
		if _, err := svc.Rename(ctx, "alice", projects.ID, "Work"); err != nil {
			t.Fatalf("Failed to rename: %v", err)
		}
		path, err := svc.GetPath(ctx, "alice", note.ID)
		if err != nil {
			t.Fatalf("Failed to get path: %v", err)
		}
		if path != "Work/lilium/todo.md" {
			t.Errorf("Expected path Work/lilium/todo.md, got %s", path)
		}

		report, err := svc.Check(ctx, "alice")
		if err != nil {
			t.Fatalf("Failed to check: %v", err)
		}
		if !report.OK() {
			t.Errorf("Expected consistent cache, got %v", report.Err())
		}
	})

	// Test 3: Export, then import under another owner
	t.Run("ExportImport", func(t *testing.T) {
		exportDir := filepath.Join(tmpDir, "export")
		res, err := exporter.Export(ctx, svc, "alice", exportDir)
		if err != nil {
			t.Fatalf("Failed to export: %v", err)
		}
		if res.Notes != 1 {
			t.Errorf("Expected 1 exported note, got %d", res.Notes)
		}
		if _, err := os.Stat(filepath.Join(exportDir, "Work", "lilium", "todo.md")); err != nil {
			t.Errorf("Expected exported file: %v", err)
		}

		if _, err := exporter.Import(ctx, svc, "bob", exportDir, ""); err != nil {
			t.Fatalf("Failed to import: %v", err)
		}
		node, err := svc.ResolvePath(ctx, "bob", "Work/lilium/todo.md")
		if err != nil {
			t.Fatalf("Failed to resolve imported note: %v", err)
		}
		if node.Kind != models.KindNote {
			t.Errorf("Expected a note, got %s", node.Kind)
		}
	})

	// Test 4: Snapshots
	t.Run("Backup", func(t *testing.T) {
		snap := backup.New(svc, filepath.Join(tmpDir, "backups"), nil, nil)
		taken, err := snap.RunOnce(ctx, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to take snapshots: %v", err)
		}
		if len(taken) != len(backup.DefaultTiers()) {
			t.Errorf("Expected one snapshot per tier, got %d", len(taken))
		}
	})
}
