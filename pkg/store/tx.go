package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// Tx is an open write transaction. Every method is scoped by owner id.
// The embedded *sql.Tx lets the path cache propagator run its own
// statements inside the same transaction.
type Tx struct {
	*sql.Tx
}

const (
	folderColumns = `f.id, f.title, f.parent_id, f.owner_id, f.created_at, f.updated_at, COALESCE(p.full_path, '')`
	folderFrom    = `folders f LEFT JOIN folder_paths p ON p.folder_id = f.id`
	noteColumns   = `n.id, n.title, n.abstract, n.content, n.syntax, n.parent_id, n.owner_id, n.created_at, n.updated_at, COALESCE(p.full_path, '')`
	noteFrom      = `notes n LEFT JOIN note_paths p ON p.note_id = n.id`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanFolder(sc scanner) (*models.Folder, error) {
	var f models.Folder
	var parentID sql.NullString
	var createdAt, updatedAt int64
	if err := sc.Scan(&f.ID, &f.Title, &parentID, &f.Owner, &createdAt, &updatedAt, &f.Path); err != nil {
		return nil, err
	}
	f.ParentID = parentID.String
	f.CreatedAt = fromMillis(createdAt)
	f.UpdatedAt = fromMillis(updatedAt)
	return &f, nil
}

func scanNote(sc scanner) (*models.Note, error) {
	var n models.Note
	var abstract, parentID sql.NullString
	var createdAt, updatedAt int64
	if err := sc.Scan(&n.ID, &n.Title, &abstract, &n.Content, &n.Syntax, &parentID, &n.Owner, &createdAt, &updatedAt, &n.Path); err != nil {
		return nil, err
	}
	n.Abstract = abstract.String
	n.ParentID = parentID.String
	n.CreatedAt = fromMillis(createdAt)
	n.UpdatedAt = fromMillis(updatedAt)
	return &n, nil
}

// Folder loads one folder, including its cached path if present.
func (tx *Tx) Folder(ctx context.Context, owner, id string) (*models.Folder, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM `+folderFrom+` WHERE f.id = ? AND f.owner_id = ?`, id, owner)
	f, err := scanFolder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &models.NotFoundError{Kind: models.KindFolder, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("load folder %s: %w", id, err)
	}
	return f, nil
}

// Note loads one note, including its cached path if present.
func (tx *Tx) Note(ctx context.Context, owner, id string) (*models.Note, error) {
	row := tx.QueryRowContext(ctx,
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

// Kind reports whether id names a folder or a note.
func (tx *Tx) Kind(ctx context.Context, owner, id string) (models.NodeKind, error) {
	var kind string
	err := tx.QueryRowContext(ctx, `
		SELECT 'folder' FROM folders WHERE id = ? AND owner_id = ?
		UNION ALL
		SELECT 'note' FROM notes WHERE id = ? AND owner_id = ?
		LIMIT 1
	`, id, owner, id, owner).Scan(&kind)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &models.NotFoundError{ID: id}
	}
	if err != nil {
		return "", fmt.Errorf("resolve node %s: %w", id, err)
	}
	return models.NodeKind(kind), nil
}

// InsertFolder writes a new folder row.
func (tx *Tx) InsertFolder(ctx context.Context, f *models.Folder) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO folders (id, title, parent_id, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, f.ID, f.Title, nullString(f.ParentID), f.Owner, toMillis(f.CreatedAt), toMillis(f.UpdatedAt))
	if err != nil {
		return folderWriteError(err, f)
	}
	return nil
}

// InsertNote writes a new note row.
func (tx *Tx) InsertNote(ctx context.Context, n *models.Note) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, abstract, content, syntax, parent_id, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.Title, nullString(n.Abstract), n.Content, n.Syntax, nullString(n.ParentID), n.Owner,
		toMillis(n.CreatedAt), toMillis(n.UpdatedAt))
	if err != nil {
		return noteWriteError(err, n)
	}
	return nil
}

// UpdateFolder persists a folder's title, parent and updated_at.
func (tx *Tx) UpdateFolder(ctx context.Context, f *models.Folder) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE folders SET title = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, f.Title, nullString(f.ParentID), toMillis(f.UpdatedAt), f.ID, f.Owner)
	if err != nil {
		return folderWriteError(err, f)
	}
	return expectRow(res, models.KindFolder, f.ID)
}

// UpdateNote persists every mutable note field in a single statement.
func (tx *Tx) UpdateNote(ctx context.Context, n *models.Note) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, abstract = ?, content = ?, syntax = ?, parent_id = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, n.Title, nullString(n.Abstract), n.Content, n.Syntax, nullString(n.ParentID), toMillis(n.UpdatedAt),
		n.ID, n.Owner)
	if err != nil {
		return noteWriteError(err, n)
	}
	return expectRow(res, models.KindNote, n.ID)
}

// SetNoteContent updates content and abstract only; the note's path is
// unaffected.
func (tx *Tx) SetNoteContent(ctx context.Context, n *models.Note) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE notes SET content = ?, abstract = ?, updated_at = ? WHERE id = ? AND owner_id = ?
	`, n.Content, nullString(n.Abstract), toMillis(n.UpdatedAt), n.ID, n.Owner)
	if err != nil {
		return fmt.Errorf("update content of note %s: %w", n.ID, err)
	}
	return expectRow(res, models.KindNote, n.ID)
}

// Owners lists every owner id that has at least one node.
func (tx *Tx) Owners(ctx context.Context) ([]string, error) {
	return owners(ctx, tx)
}

// DeleteFolder removes a folder. Descendant folders, notes and every affected
// path cache row go with it through ON DELETE CASCADE.
func (tx *Tx) DeleteFolder(ctx context.Context, owner, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM folders WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete folder %s: %w", id, err)
	}
	return expectRow(res, models.KindFolder, id)
}

// DeleteNote removes a note and its path cache row.
func (tx *Tx) DeleteNote(ctx context.Context, owner, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return expectRow(res, models.KindNote, id)
}

// ChildFolders lists the direct sub-folders of parentID ("" for roots).
func (tx *Tx) ChildFolders(ctx context.Context, owner, parentID string) ([]*models.Folder, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM `+folderFrom+` WHERE f.owner_id = ? AND f.parent_id IS ? ORDER BY f.title`,
		owner, nullString(parentID))
	if err != nil {
		return nil, fmt.Errorf("list child folders: %w", err)
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

// ChildNotes lists the notes directly inside parentID ("" for roots).
func (tx *Tx) ChildNotes(ctx context.Context, owner, parentID string) ([]*models.Note, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM `+noteFrom+` WHERE n.owner_id = ? AND n.parent_id IS ? ORDER BY n.title`,
		owner, nullString(parentID))
	if err != nil {
		return nil, fmt.Errorf("list child notes: %w", err)
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

// ParentOf returns a folder's parent id, "" for a root folder.
func (tx *Tx) ParentOf(ctx context.Context, owner, folderID string) (string, error) {
	var parentID sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT parent_id FROM folders WHERE id = ? AND owner_id = ?`, folderID, owner).Scan(&parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", &models.NotFoundError{Kind: models.KindFolder, ID: folderID}
	}
	if err != nil {
		return "", fmt.Errorf("load parent of %s: %w", folderID, err)
	}
	return parentID.String, nil
}

// SubtreeNoteIDs lists every note inside folderID or any of its descendants.
func (tx *Tx) SubtreeNoteIDs(ctx context.Context, owner, folderID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM folders WHERE id = ? AND owner_id = ?
			UNION ALL
			SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id WHERE f.owner_id = ?
		)
		SELECT n.id FROM notes n JOIN subtree s ON n.parent_id = s.id WHERE n.owner_id = ?
	`, folderID, owner, owner, owner)
	if err != nil {
		return nil, fmt.Errorf("list subtree notes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendHistory records a mutation and trims the owner's log to limit rows.
// A limit of zero or less disables trimming.
func (tx *Tx) AppendHistory(ctx context.Context, e *models.HistoryEntry, limit int) error {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO history (owner_id, op, node_id, node_kind, before_path, after_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.Owner, e.Op, e.NodeID, string(e.Kind), nullString(e.BeforePath), nullString(e.AfterPath), toMillis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}

	if limit <= 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM history WHERE owner_id = ? AND id NOT IN (
			SELECT id FROM history WHERE owner_id = ? ORDER BY id DESC LIMIT ?
		)
	`, e.Owner, e.Owner, limit)
	if err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func expectRow(res sql.Result, kind models.NodeKind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

func folderWriteError(err error, f *models.Folder) error {
	if isUniqueViolation(err) {
		return &models.DuplicateNameError{Kind: models.KindFolder, ParentID: f.ParentID, Title: f.Title}
	}
	return fmt.Errorf("write folder %s: %w", f.ID, err)
}

func noteWriteError(err error, n *models.Note) error {
	if isUniqueViolation(err) {
		return &models.DuplicateNameError{Kind: models.KindNote, ParentID: n.ParentID, Title: n.Title, Syntax: n.Syntax}
	}
	return fmt.Errorf("write note %s: %w", n.ID, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
