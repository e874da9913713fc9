// Package pathcache maintains the materialized full path of every node.
//
// The Propagator rewrites cache rows inside the caller's transaction: one row
// on insert, the affected subtree on a folder rename or move, a single row for
// a note. Rebuild recomputes everything from the tree and is reserved for
// startup recovery and explicit maintenance.
package pathcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// Querier is the subset of *sql.Tx the propagator needs.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Cascade summarizes the cache rows rewritten by one propagation. Path is
// the new path of the folder the cascade started from.
type Cascade struct {
	Path    string
	Folders int
	Notes   []models.PathEntry
}

// RebuildStats summarizes a full rebuild.
type RebuildStats struct {
	Layers  int
	Folders int
	Notes   int
}

// Propagator keeps folder_paths and note_paths in step with the tree.
type Propagator struct {
	logger *logrus.Entry
}

// New creates a propagator.
func New(logger *logrus.Entry) *Propagator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Propagator{logger: logger}
}

// FolderPath reads a folder's cached path.
func FolderPath(ctx context.Context, q Querier, owner, folderID string) (string, error) {
	var path string
	err := q.QueryRowContext(ctx,
		`SELECT full_path FROM folder_paths WHERE folder_id = ? AND owner_id = ?`, folderID, owner).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &models.CacheInconsistencyError{NodeID: folderID, Kind: models.KindFolder, Reason: "missing cache entry"}
	}
	if err != nil {
		return "", fmt.Errorf("read cached path of %s: %w", folderID, err)
	}
	return path, nil
}

func parentPath(ctx context.Context, q Querier, owner, parentID string) (string, error) {
	if parentID == "" {
		return "", nil
	}
	return FolderPath(ctx, q, owner, parentID)
}

func writeFolderPath(ctx context.Context, q Querier, owner, folderID, path string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO folder_paths (folder_id, owner_id, full_path) VALUES (?, ?, ?)
		ON CONFLICT(folder_id) DO UPDATE SET full_path = excluded.full_path, owner_id = excluded.owner_id
	`, folderID, owner, path)
	if err != nil {
		return fmt.Errorf("write cached path of folder %s: %w", folderID, err)
	}
	return nil
}

func writeNotePath(ctx context.Context, q Querier, owner, noteID, path string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO note_paths (note_id, owner_id, full_path) VALUES (?, ?, ?)
		ON CONFLICT(note_id) DO UPDATE SET full_path = excluded.full_path, owner_id = excluded.owner_id
	`, noteID, owner, path)
	if err != nil {
		return fmt.Errorf("write cached path of note %s: %w", noteID, err)
	}
	return nil
}

// InsertFolder writes the cache row of a freshly inserted folder from its
// parent's cached path and stores the result in f.Path.
func (p *Propagator) InsertFolder(ctx context.Context, q Querier, f *models.Folder) error {
	base, err := parentPath(ctx, q, f.Owner, f.ParentID)
	if err != nil {
		return err
	}
	path := models.JoinPath(base, f.Title)
	if err := writeFolderPath(ctx, q, f.Owner, f.ID, path); err != nil {
		return err
	}
	f.Path = path
	return nil
}

// InsertNote writes the cache row of a freshly inserted note and stores the
// result in n.Path.
func (p *Propagator) InsertNote(ctx context.Context, q Querier, n *models.Note) error {
	base, err := parentPath(ctx, q, n.Owner, n.ParentID)
	if err != nil {
		return err
	}
	path := models.JoinPath(base, n.FileName())
	if err := writeNotePath(ctx, q, n.Owner, n.ID, path); err != nil {
		return err
	}
	n.Path = path
	return nil
}

// RefreshNote recomputes a single note's path after its title, syntax or
// parent changed.
func (p *Propagator) RefreshNote(ctx context.Context, q Querier, owner, noteID string) (string, error) {
	var title, syntax string
	var parentID sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT title, syntax, parent_id FROM notes WHERE id = ? AND owner_id = ?`, noteID, owner).
		Scan(&title, &syntax, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &models.NotFoundError{Kind: models.KindNote, ID: noteID}
	}
	if err != nil {
		return "", fmt.Errorf("load note %s: %w", noteID, err)
	}

	base, err := parentPath(ctx, q, owner, parentID.String)
	if err != nil {
		return "", err
	}
	path := models.JoinPath(base, models.NoteFileName(title, syntax))
	if err := writeNotePath(ctx, q, owner, noteID, path); err != nil {
		return "", err
	}
	return path, nil
}

type folderRef struct {
	id    string
	title string
	path  string
}

// RefreshFolder recomputes the path of folderID and of everything below it
// after the folder was renamed or moved. Folders are visited parent before
// child, so every child reads an already updated parent path; notes are
// rewritten last from their owning folder's new path.
func (p *Propagator) RefreshFolder(ctx context.Context, q Querier, owner, folderID string) (*Cascade, error) {
	var title string
	var parentID sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT title, parent_id FROM folders WHERE id = ? AND owner_id = ?`, folderID, owner).
		Scan(&title, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: models.KindFolder, ID: folderID}
	}
	if err != nil {
		return nil, fmt.Errorf("load folder %s: %w", folderID, err)
	}

	base, err := parentPath(ctx, q, owner, parentID.String)
	if err != nil {
		return nil, err
	}

	root := folderRef{id: folderID, title: title, path: models.JoinPath(base, title)}
	if err := writeFolderPath(ctx, q, owner, root.id, root.path); err != nil {
		return nil, err
	}

	subtree := []folderRef{root}
	for i := 0; i < len(subtree); i++ {
		parent := subtree[i]
		children, err := childFolders(ctx, q, owner, parent.id)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			child.path = models.JoinPath(parent.path, child.title)
			if err := writeFolderPath(ctx, q, owner, child.id, child.path); err != nil {
				return nil, err
			}
			subtree = append(subtree, child)
		}
	}

	c := &Cascade{Path: root.path, Folders: len(subtree)}
	for _, folder := range subtree {
		notes, err := childNotes(ctx, q, owner, folder.id)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			path := models.JoinPath(folder.path, models.NoteFileName(n.title, n.syntax))
			if err := writeNotePath(ctx, q, owner, n.id, path); err != nil {
				return nil, err
			}
			c.Notes = append(c.Notes, models.PathEntry{NodeID: n.id, Kind: models.KindNote, Owner: owner, FullPath: path})
		}
	}

	recordCascade(ctx, "refresh_folder", c)
	p.logger.WithFields(logrus.Fields{
		"owner":     owner,
		"folder_id": folderID,
		"folders":   c.Folders,
		"notes":     len(c.Notes),
	}).Debug("path cascade applied")
	return c, nil
}

// childFolders collects before returning so no cursor stays open while the
// caller writes.
func childFolders(ctx context.Context, q Querier, owner, parentID string) ([]folderRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, title FROM folders WHERE parent_id = ? AND owner_id = ?`, parentID, owner)
	if err != nil {
		return nil, fmt.Errorf("list sub-folders of %s: %w", parentID, err)
	}
	defer rows.Close()

	var refs []folderRef
	for rows.Next() {
		var r folderRef
		if err := rows.Scan(&r.id, &r.title); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

type noteRef struct {
	id     string
	title  string
	syntax string
}

func childNotes(ctx context.Context, q Querier, owner, parentID string) ([]noteRef, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, title, syntax FROM notes WHERE parent_id = ? AND owner_id = ?`, parentID, owner)
	if err != nil {
		return nil, fmt.Errorf("list notes of %s: %w", parentID, err)
	}
	defer rows.Close()

	var refs []noteRef
	for rows.Next() {
		var r noteRef
		if err := rows.Scan(&r.id, &r.title, &r.syntax); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
