// Package search keeps a full-text index of note titles, abstracts and
// content, keyed by note id and tagged with the note's cached path so
// results can be scoped to a folder.
package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

const defaultLimit = 50

// Index manages the search index
type Index struct {
	db     *sql.DB
	useFTS bool
}

// Result is one search hit
type Result struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Syntax    string    `json:"syntax"`
	UpdatedAt time.Time `json:"updated_at"`
	Snippet   string    `json:"snippet,omitempty"`
}

// Options for searching
type Options struct {
	Owner string
	// Under restricts hits to notes below this folder path.
	Under string
	Limit int
}

// NewIndex creates a new search index
func NewIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS notes_meta (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		path TEXT NOT NULL,
		title TEXT,
		abstract TEXT,
		content TEXT,
		syntax TEXT,
		updated_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_notes_meta_owner_path ON notes_meta(owner_id, path);
	`

	if _, err := idx.db.Exec(metaSchema); err != nil {
		return err
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			title,
			abstract,
			content,
			tokenize = 'porter unicode61'
		);
		`

		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// If FTS creation fails, disable FTS and continue
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support checks if FTS5 module is available
func (idx *Index) checkFTS5Support() bool {
	_, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_test USING fts5(content)")
	if err != nil {
		return false
	}

	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_test")
	return true
}

// UsesFTS reports whether the FTS5 module was available.
func (idx *Index) UsesFTS() bool {
	return idx.useFTS
}

// IndexNote indexes or reindexes a note
func (idx *Index) IndexNote(note *models.Note) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := removeNote(tx, idx.useFTS, note.ID); err != nil {
		return err
	}

	if idx.useFTS {
		_, err = tx.Exec(`
			INSERT INTO notes_fts (id, title, abstract, content) VALUES (?, ?, ?, ?)
		`, note.ID, note.Title, note.Abstract, note.Content)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(`
		INSERT INTO notes_meta (id, owner_id, path, title, abstract, content, syntax, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Owner, note.Path, note.Title, note.Abstract, note.Content, note.Syntax,
		note.UpdatedAt.UnixMilli())
	if err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePaths rewrites the stored paths after a cascade. Entries for notes
// that were never indexed are ignored.
func (idx *Index) UpdatePaths(entries []models.PathEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(`UPDATE notes_meta SET path = ? WHERE id = ? AND owner_id = ?`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.Exec(e.FullPath, e.NodeID, e.Owner); err != nil {
			return fmt.Errorf("update indexed path of %s: %w", e.NodeID, err)
		}
	}

	return tx.Commit()
}

// RemoveNotes removes notes from the index
func (idx *Index) RemoveNotes(ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, id := range ids {
		if err := removeNote(tx, idx.useFTS, id); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear drops every indexed note of owner, ahead of a full reindex.
func (idx *Index) Clear(owner string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		_, err = tx.Exec(`DELETE FROM notes_fts WHERE id IN (SELECT id FROM notes_meta WHERE owner_id = ?)`, owner)
		if err != nil {
			return err
		}
	}
	if _, err = tx.Exec(`DELETE FROM notes_meta WHERE owner_id = ?`, owner); err != nil {
		return err
	}

	return tx.Commit()
}

func removeNote(tx *sql.Tx, useFTS bool, id string) error {
	if useFTS {
		if _, err := tx.Exec("DELETE FROM notes_fts WHERE id = ?", id); err != nil {
			return err
		}
	}
	_, err := tx.Exec("DELETE FROM notes_meta WHERE id = ?", id)
	return err
}

// Search performs a full-text search
func (idx *Index) Search(query string, opts *Options) ([]*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}

	if idx.useFTS {
		return idx.searchWithFTS(query, opts)
	}
	return idx.searchWithoutFTS(query, opts)
}

func scopeConditions(prefix string, opts *Options) ([]string, []any) {
	conditions := []string{prefix + "owner_id = ?"}
	args := []any{opts.Owner}

	if opts.Under != "" {
		lo, hi := models.PrefixRange(opts.Under)
		conditions = append(conditions, prefix+"path >= ?", prefix+"path < ?")
		args = append(args, lo, hi)
	}
	return conditions, args
}

// searchWithFTS performs search using FTS5
func (idx *Index) searchWithFTS(query string, opts *Options) ([]*Result, error) {
	conditions, args := scopeConditions("m.", opts)
	conditions = append(conditions, "notes_fts MATCH ?")
	args = append(args, query, opts.Limit)

	searchQuery := fmt.Sprintf(`
		SELECT
			m.id, m.owner_id, m.path, m.title, m.syntax, m.updated_at,
			snippet(notes_fts, 3, '<match>', '</match>', '...', 32) as snippet
		FROM notes_fts
		JOIN notes_meta m ON notes_fts.id = m.id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		r := &Result{}
		var updatedAt int64
		if err := rows.Scan(&r.ID, &r.Owner, &r.Path, &r.Title, &r.Syntax, &updatedAt, &r.Snippet); err != nil {
			return nil, err
		}
		r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		results = append(results, r)
	}

	return results, rows.Err()
}

// searchWithoutFTS performs search using LIKE queries on metadata table
func (idx *Index) searchWithoutFTS(query string, opts *Options) ([]*Result, error) {
	conditions, args := scopeConditions("", opts)

	searchPattern := "%" + strings.ReplaceAll(query, " ", "%") + "%"
	conditions = append(conditions, "(title LIKE ? OR abstract LIKE ? OR content LIKE ?)")
	args = append(args, searchPattern, searchPattern, searchPattern, opts.Limit)

	searchQuery := fmt.Sprintf(`
		SELECT id, owner_id, path, title, syntax, updated_at
		FROM notes_meta
		WHERE %s
		ORDER BY updated_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	rows, err := idx.db.Query(searchQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		r := &Result{}
		var updatedAt int64
		if err := rows.Scan(&r.ID, &r.Owner, &r.Path, &r.Title, &r.Syntax, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt = time.UnixMilli(updatedAt).UTC()
		results = append(results, r)
	}

	return results, rows.Err()
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}
