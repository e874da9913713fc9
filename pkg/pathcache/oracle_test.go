package pathcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

func TestComputePaths(t *testing.T) {
	folders := NewFolderMap([]*models.Folder{
		{ID: "a", Title: "Projects"},
		{ID: "b", Title: "Alpha", ParentID: "a"},
	})

	p, err := ComputeFolderPath(&models.Folder{ID: "c", Title: "Beta", ParentID: "b"}, folders)
	require.NoError(t, err)
	assert.Equal(t, "Projects/Alpha/Beta", p)

	p, err = ComputeNotePath(&models.Note{ID: "n", Title: "todo", Syntax: "md", ParentID: "b"}, folders)
	require.NoError(t, err)
	assert.Equal(t, "Projects/Alpha/todo.md", p)

	p, err = ComputeNotePath(&models.Note{ID: "r", Title: "readme", Syntax: "org"}, folders)
	require.NoError(t, err)
	assert.Equal(t, "readme.org", p)
}

func TestComputePathCorruptTree(t *testing.T) {
	cyclic := NewFolderMap([]*models.Folder{
		{ID: "a", Title: "A", ParentID: "b"},
		{ID: "b", Title: "B", ParentID: "a"},
	})
	_, err := ComputeFolderPath(cyclic["a"], cyclic)
	assert.ErrorIs(t, err, models.ErrCacheInconsistency)

	_, err = ComputeNotePath(&models.Note{ID: "n", Title: "x", Syntax: "md", ParentID: "gone"}, cyclic)
	assert.ErrorIs(t, err, models.ErrCacheInconsistency)
}
