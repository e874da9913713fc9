package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

func TestConvertFolderWithIndexNote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	root := mustFolder(t, svc, "Root", "")
	projects := mustFolder(t, svc, "Projects", root.ID)
	index := mustNote(t, svc, "index", projects.ID)

	note, err := svc.ConvertFolderToNote(ctx, alice, projects.ID)
	require.NoError(t, err)
	assert.Equal(t, index.ID, note.ID)
	assert.Equal(t, "Projects", note.Title)
	assert.Equal(t, root.ID, note.ParentID)
	assert.Equal(t, "Root/Projects.md", note.Path)
	assert.Equal(t, index.Content, note.Content)

	_, err = svc.GetNode(ctx, alice, projects.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	requireCacheOK(t, svc, alice)
}

func TestConvertNoteToFolder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := mustFolder(t, svc, "P", "")
	n := mustNote(t, svc, "ideas", parent.ID)

	conv, err := svc.ConvertNoteToFolder(ctx, alice, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "ideas", conv.Folder.Title)
	assert.Equal(t, parent.ID, conv.Folder.ParentID)
	assert.Equal(t, "P/ideas", conv.Folder.Path)
	assert.Equal(t, n.ID, conv.Note.ID)
	assert.Equal(t, models.IndexTitle, conv.Note.Title)
	assert.Equal(t, conv.Folder.ID, conv.Note.ParentID)
	assert.Equal(t, "P/ideas/index.md", conv.Note.Path)

	children, err := svc.GetChildren(ctx, alice, conv.Folder.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, n.ID, children[0].ID)
	requireCacheOK(t, svc, alice)
}

func TestConvertRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.CreateNote(ctx, alice, models.NoteInput{
		Title:    "journal",
		Abstract: "daily log",
		Content:  "dear diary",
		Syntax:   "org",
	})
	require.NoError(t, err)

	conv, err := svc.ConvertNoteToFolder(ctx, alice, n.ID)
	require.NoError(t, err)

	back, err := svc.ConvertFolderToNote(ctx, alice, conv.Folder.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, back.ID)
	assert.Equal(t, n.Title, back.Title)
	assert.Equal(t, n.Content, back.Content)
	assert.Equal(t, n.Abstract, back.Abstract)
	assert.Equal(t, n.Syntax, back.Syntax)
	assert.Equal(t, n.Path, back.Path)
	assert.Empty(t, back.ParentID)

	entries, err := svc.History(ctx, alice, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, OpConvertToNote, entries[0].Op)
	assert.Equal(t, OpConvertToFolder, entries[1].Op)
	requireCacheOK(t, svc, alice)
}

func TestConvertNoteToFolderBesideIndexNote(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	parent := mustFolder(t, svc, "P", "")
	existing := mustNote(t, svc, models.IndexTitle, parent.ID)
	n := mustNote(t, svc, "ideas", parent.ID)

	conv, err := svc.ConvertNoteToFolder(ctx, alice, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "P/ideas", conv.Folder.Path)
	assert.Equal(t, n.ID, conv.Note.ID)
	assert.Equal(t, "P/ideas/index.md", conv.Note.Path)

	path, err := svc.GetPath(ctx, alice, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "P/index.md", path)

	children, err := svc.GetChildren(ctx, alice, parent.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, conv.Folder.ID, children[0].ID)
	assert.Equal(t, existing.ID, children[1].ID)
	requireCacheOK(t, svc, alice)
}

func TestConvertFolderToNoteSiblingTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	root := mustFolder(t, svc, "R", "")
	projects := mustFolder(t, svc, "Projects", root.ID)
	index := mustNote(t, svc, models.IndexTitle, projects.ID)
	sibling := mustNote(t, svc, "Projects", root.ID)

	_, err := svc.ConvertFolderToNote(ctx, alice, projects.ID)
	var duplicate *models.DuplicateNameError
	require.ErrorAs(t, err, &duplicate)
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	path, err := svc.GetPath(ctx, alice, index.ID)
	require.NoError(t, err)
	assert.Equal(t, "R/Projects/index.md", path)

	path, err = svc.GetPath(ctx, alice, projects.ID)
	require.NoError(t, err)
	assert.Equal(t, "R/Projects", path)

	path, err = svc.GetPath(ctx, alice, sibling.ID)
	require.NoError(t, err)
	assert.Equal(t, "R/Projects.md", path)

	note, err := svc.GetNote(ctx, alice, index.ID)
	require.NoError(t, err)
	assert.Equal(t, models.IndexTitle, note.Title)
	assert.Equal(t, projects.ID, note.ParentID)
	requireCacheOK(t, svc, alice)
}

func TestConvertNoteToFolderNameTaken(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustFolder(t, svc, "ideas", "")
	n := mustNote(t, svc, "ideas", "")

	_, err := svc.ConvertNoteToFolder(ctx, alice, n.ID)
	assert.ErrorIs(t, err, models.ErrDuplicateName)

	path, err := svc.GetPath(ctx, alice, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "ideas.md", path)
}

func TestConvertEmptyFolder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	f := mustFolder(t, svc, "Empty", "")

	note, err := svc.ConvertFolderToNote(ctx, alice, f.ID)
	require.NoError(t, err)
	assert.NotEqual(t, f.ID, note.ID)
	assert.Equal(t, "Empty", note.Title)
	assert.Equal(t, models.DefaultSyntax, note.Syntax)
	assert.Empty(t, note.Content)
	assert.Equal(t, "Empty.md", note.Path)

	_, err = svc.GetPath(ctx, alice, f.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestConvertFolderToNoteRejected(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	withSub := mustFolder(t, svc, "WithSub", "")
	mustFolder(t, svc, "Sub", withSub.ID)
	_, err := svc.ConvertFolderToNote(ctx, alice, withSub.ID)
	assert.ErrorIs(t, err, models.ErrAmbiguousConversion)

	twoNotes := mustFolder(t, svc, "TwoNotes", "")
	mustNote(t, svc, "index", twoNotes.ID)
	mustNote(t, svc, "other", twoNotes.ID)
	_, err = svc.ConvertFolderToNote(ctx, alice, twoNotes.ID)
	var ambiguous *models.AmbiguousConversionError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, 0, ambiguous.Folders)
	assert.Equal(t, 2, ambiguous.Notes)

	wrongTitle := mustFolder(t, svc, "WrongTitle", "")
	mustNote(t, svc, "readme", wrongTitle.ID)
	_, err = svc.ConvertFolderToNote(ctx, alice, wrongTitle.ID)
	assert.ErrorIs(t, err, models.ErrInvalidIndexTitle)

	_, err = svc.ConvertFolderToNote(ctx, alice, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	for _, id := range []string{withSub.ID, twoNotes.ID, wrongTitle.ID} {
		_, err := svc.GetNode(ctx, alice, id)
		assert.NoError(t, err)
	}
	requireCacheOK(t, svc, alice)
}
