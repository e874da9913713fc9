package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// maxAncestorDepth stops the ancestor walk on corrupted (cyclic) data.
const maxAncestorDepth = 4096

// nodeSelect unions folders and notes with their cached paths. The two %s
// verbs take the folder-side and note-side conditions; every caller binds
// owner, folder args, owner, note args. Result column 6 is the full path.
const nodeSelect = `
	SELECT f.id, 'folder', f.title, '', f.parent_id, p.full_path, f.created_at, f.updated_at
	FROM folders f JOIN folder_paths p ON p.folder_id = f.id
	WHERE f.owner_id = ? AND %s
	UNION ALL
	SELECT n.id, 'note', n.title, n.syntax, n.parent_id, p.full_path, n.created_at, n.updated_at
	FROM notes n JOIN note_paths p ON p.note_id = n.id
	WHERE n.owner_id = ? AND %s`

func scanNode(sc scanner) (*models.Node, error) {
	var n models.Node
	var kind string
	var parentID sql.NullString
	var createdAt, updatedAt int64
	if err := sc.Scan(&n.ID, &kind, &n.Title, &n.Syntax, &parentID, &n.Path, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Kind = models.NodeKind(kind)
	n.ParentID = parentID.String
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return &n, nil
}

func (s *Store) queryNodes(ctx context.Context, query string, args ...any) ([]*models.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []*models.Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Path returns the cached full path of a node in one indexed read.
func (s *Store) Path(ctx context.Context, owner, id string) (string, models.NodeKind, error) {
	var path, kind string
	err := s.db.QueryRowContext(ctx, `
		SELECT full_path, 'folder' FROM folder_paths WHERE folder_id = ? AND owner_id = ?
		UNION ALL
		SELECT full_path, 'note' FROM note_paths WHERE note_id = ? AND owner_id = ?
		LIMIT 1
	`, id, owner, id, owner).Scan(&path, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", &models.NotFoundError{ID: id}
	}
	if err != nil {
		return "", "", fmt.Errorf("read path of %s: %w", id, err)
	}
	return path, models.NodeKind(kind), nil
}

// Node returns the node view of a folder or note.
func (s *Store) Node(ctx context.Context, owner, id string) (*models.Node, error) {
	query := fmt.Sprintf(nodeSelect, "f.id = ?", "n.id = ?") + " LIMIT 1"
	nodes, err := s.queryNodes(ctx, query, owner, id, owner, id)
	if err != nil {
		return nil, fmt.Errorf("load node %s: %w", id, err)
	}
	if len(nodes) == 0 {
		return nil, &models.NotFoundError{ID: id}
	}
	return nodes[0], nil
}

// Descendants returns every node below folderID, ordered by path. It is a
// range scan over the cached paths, not a tree walk.
func (s *Store) Descendants(ctx context.Context, owner, folderID string) ([]*models.Node, error) {
	var folderPath string
	err := s.db.QueryRowContext(ctx,
		`SELECT full_path FROM folder_paths WHERE folder_id = ? AND owner_id = ?`, folderID, owner).Scan(&folderPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: models.KindFolder, ID: folderID}
	}
	if err != nil {
		return nil, fmt.Errorf("read path of %s: %w", folderID, err)
	}

	lo, hi := models.PrefixRange(folderPath)
	query := fmt.Sprintf(nodeSelect,
		"p.full_path >= ? AND p.full_path < ?",
		"p.full_path >= ? AND p.full_path < ?") + " ORDER BY 6"
	nodes, err := s.queryNodes(ctx, query, owner, lo, hi, owner, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("list descendants of %s: %w", folderID, err)
	}
	return nodes, nil
}

// Children lists the direct children of parentID ("" for the roots),
// folders first, then alphabetically.
func (s *Store) Children(ctx context.Context, owner, parentID string) ([]*models.Node, error) {
	if parentID != "" {
		var one int
		err := s.db.QueryRowContext(ctx,
			`SELECT 1 FROM folders WHERE id = ? AND owner_id = ?`, parentID, owner).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &models.NotFoundError{Kind: models.KindFolder, ID: parentID}
		}
		if err != nil {
			return nil, fmt.Errorf("load folder %s: %w", parentID, err)
		}
	}

	parent := nullString(parentID)
	query := fmt.Sprintf(nodeSelect, "f.parent_id IS ?", "n.parent_id IS ?")
	nodes, err := s.queryNodes(ctx, query, owner, parent, owner, parent)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	models.SortNodes(nodes)
	return nodes, nil
}

// Ancestors returns the folders above id, root first, following parent
// pointers rather than the path cache.
func (s *Store) Ancestors(ctx context.Context, owner, id string) ([]*models.Folder, error) {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE chain(id, title, parent_id, created_at, updated_at, depth) AS (
			SELECT id, title, parent_id, created_at, updated_at, 0 FROM folders WHERE id = ? AND owner_id = ?
			UNION ALL
			SELECT id, title, parent_id, created_at, updated_at, 0 FROM notes WHERE id = ? AND owner_id = ?
			UNION ALL
			SELECT f.id, f.title, f.parent_id, f.created_at, f.updated_at, c.depth + 1
			FROM folders f JOIN chain c ON f.id = c.parent_id
			WHERE f.owner_id = ? AND c.depth < ?
		)
		SELECT c.id, c.title, c.parent_id, c.created_at, c.updated_at, COALESCE(p.full_path, ''), c.depth
		FROM chain c LEFT JOIN folder_paths p ON p.folder_id = c.id
		ORDER BY c.depth DESC
	`, id, owner, id, owner, owner, maxAncestorDepth)
	if err != nil {
		return nil, fmt.Errorf("walk ancestors of %s: %w", id, err)
	}
	defer rows.Close()

	var chain []*models.Folder
	found := false
	for rows.Next() {
		var f models.Folder
		var parentID sql.NullString
		var createdAt, updatedAt int64
		var depth int
		if err := rows.Scan(&f.ID, &f.Title, &parentID, &createdAt, &updatedAt, &f.Path, &depth); err != nil {
			return nil, err
		}
		if depth == 0 {
			found = true
			continue
		}
		f.ParentID = parentID.String
		f.Owner = owner
		f.CreatedAt = fromMillis(createdAt)
		f.UpdatedAt = fromMillis(updatedAt)
		chain = append(chain, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, &models.NotFoundError{ID: id}
	}
	return chain, nil
}

// ResolvePath finds the node whose cached path equals path. A folder wins
// over a note when both render to the same string.
func (s *Store) ResolvePath(ctx context.Context, owner, path string) (*models.Node, error) {
	query := fmt.Sprintf(nodeSelect, "p.full_path = ?", "p.full_path = ?") + " ORDER BY 2 LIMIT 1"
	nodes, err := s.queryNodes(ctx, query, owner, path, owner, path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %q: %w", path, err)
	}
	if len(nodes) == 0 {
		return nil, &models.NotFoundError{ID: path}
	}
	return nodes[0], nil
}

// AllNodes returns the owner's whole tree ordered by path.
func (s *Store) AllNodes(ctx context.Context, owner string) ([]*models.Node, error) {
	query := fmt.Sprintf(nodeSelect, "1 = 1", "1 = 1") + " ORDER BY 6"
	nodes, err := s.queryNodes(ctx, query, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	return nodes, nil
}

// Folders returns every folder of the owner with its cached path.
func (s *Store) Folders(ctx context.Context, owner string) ([]*models.Folder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM `+folderFrom+` WHERE f.owner_id = ? ORDER BY p.full_path`, owner)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

// Notes returns every note of the owner, content included.
func (s *Store) Notes(ctx context.Context, owner string) ([]*models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM `+noteFrom+` WHERE n.owner_id = ? ORDER BY p.full_path`, owner)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// Note loads a single note with content, outside any transaction.
func (s *Store) Note(ctx context.Context, owner, id string) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM `+noteFrom+` WHERE n.id = ? AND n.owner_id = ?`, id, owner)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: models.KindNote, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load note %s: %w", id, err)
	}
	return n, nil
}

// History returns the newest history entries first.
func (s *Store) History(ctx context.Context, owner string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, op, node_id, node_kind, COALESCE(before_path, ''), COALESCE(after_path, ''), created_at
		FROM history WHERE owner_id = ? ORDER BY id DESC LIMIT ?
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		var kind string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Owner, &e.Op, &e.NodeID, &kind, &e.BeforePath, &e.AfterPath, &createdAt); err != nil {
			return nil, err
		}
		e.Kind = models.NodeKind(kind)
		e.CreatedAt = fromMillis(createdAt)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Owners lists every owner id that has at least one node.
func (s *Store) Owners(ctx context.Context) ([]string, error) {
	return owners(ctx, s.db)
}

type rowsQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func owners(ctx context.Context, q rowsQuerier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT owner_id FROM folders UNION SELECT owner_id FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, err
		}
		ids = append(ids, owner)
	}
	return ids, rows.Err()
}
