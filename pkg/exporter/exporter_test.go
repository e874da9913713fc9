package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.New(&service.Config{DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newService(t)

	projects, err := src.CreateFolder(ctx, "alice", "Projects", "")
	require.NoError(t, err)
	alpha, err := src.CreateFolder(ctx, "alice", "Alpha", projects.ID)
	require.NoError(t, err)
	_, err = src.CreateFolder(ctx, "alice", "Empty", "")
	require.NoError(t, err)
	_, err = src.CreateNote(ctx, "alice", models.NoteInput{Title: "todo", Abstract: "things", Content: "- milk\n", ParentID: alpha.ID})
	require.NoError(t, err)
	_, err = src.CreateNote(ctx, "alice", models.NoteInput{Title: "readme", Syntax: "org", Content: "* hi\n"})
	require.NoError(t, err)

	dir := t.TempDir()
	res, err := Export(ctx, src, "alice", dir)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Folders)
	assert.Equal(t, 2, res.Notes)

	data, err := os.ReadFile(filepath.Join(dir, "Projects", "Alpha", "todo.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "title: todo")
	assert.Contains(t, string(data), "- milk")
	assert.DirExists(t, filepath.Join(dir, "Empty"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "LICENSE"), []byte("x"), 0644))

	dst := newService(t)
	imported, err := dst.CreateFolder(ctx, "bob", "Imported", "")
	require.NoError(t, err)

	res, err = Import(ctx, dst, "bob", dir, imported.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Folders)
	assert.Equal(t, 2, res.Notes)
	assert.Len(t, res.Skipped, 2)

	node, err := dst.ResolvePath(ctx, "bob", "Imported/Projects/Alpha/todo.md")
	require.NoError(t, err)
	note, err := dst.GetNote(ctx, "bob", node.ID)
	require.NoError(t, err)
	assert.Equal(t, "- milk\n", note.Content)
	assert.Equal(t, "things", note.Abstract)

	node, err = dst.ResolvePath(ctx, "bob", "Imported/readme.org")
	require.NoError(t, err)
	assert.Equal(t, "org", node.Syntax)
}

func TestImportMissingDir(t *testing.T) {
	svc := newService(t)
	_, err := Import(context.Background(), svc, "alice", filepath.Join(t.TempDir(), "nope"), "")
	assert.Error(t, err)
}
