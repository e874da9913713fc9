package pathcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// Report is the outcome of Verify.
type Report struct {
	Folders  int
	Notes    int
	Problems []*models.CacheInconsistencyError
}

// OK reports whether every cached path matched.
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Err joins all problems into one error, or returns nil.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, len(r.Problems))
	for i, p := range r.Problems {
		errs[i] = p
	}
	return errors.Join(errs...)
}

func (r *Report) add(err error) error {
	var inconsistent *models.CacheInconsistencyError
	if errors.As(err, &inconsistent) {
		r.Problems = append(r.Problems, inconsistent)
		return nil
	}
	return err
}

// Verify compares every cached path of owner with the path the oracle derives
// from the tree. It only reads.
func (p *Propagator) Verify(ctx context.Context, q Querier, owner string) (*Report, error) {
	folders, err := loadFolders(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	notes, err := loadNotes(ctx, q, owner)
	if err != nil {
		return nil, err
	}
	cachedFolders, err := loadCache(ctx, q, `SELECT folder_id, full_path FROM folder_paths WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, err
	}
	cachedNotes, err := loadCache(ctx, q, `SELECT note_id, full_path FROM note_paths WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, err
	}

	lookup := NewFolderMap(folders)
	report := &Report{Folders: len(folders), Notes: len(notes)}
	for _, f := range folders {
		want, err := ComputeFolderPath(f, lookup)
		if err != nil {
			if err := report.add(err); err != nil {
				return nil, err
			}
			continue
		}
		report.compare(f.ID, models.KindFolder, cachedFolders, want)
	}
	for _, n := range notes {
		want, err := ComputeNotePath(n, lookup)
		if err != nil {
			if err := report.add(err); err != nil {
				return nil, err
			}
			continue
		}
		report.compare(n.ID, models.KindNote, cachedNotes, want)
	}

	report.orphans(folders, notes, cachedFolders, cachedNotes)
	return report, nil
}

// orphans reports cache rows of the owner that belong to no node of the owner.
func (r *Report) orphans(folders []*models.Folder, notes []*models.Note, cachedFolders, cachedNotes map[string]string) {
	for _, f := range folders {
		delete(cachedFolders, f.ID)
	}
	for _, n := range notes {
		delete(cachedNotes, n.ID)
	}
	r.addOrphans(models.KindFolder, cachedFolders)
	r.addOrphans(models.KindNote, cachedNotes)
}

func (r *Report) addOrphans(kind models.NodeKind, cached map[string]string) {
	ids := make([]string, 0, len(cached))
	for id := range cached {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		r.Problems = append(r.Problems, &models.CacheInconsistencyError{
			NodeID: id, Kind: kind, Cached: cached[id], Reason: "orphan cache entry",
		})
	}
}

func (r *Report) compare(id string, kind models.NodeKind, cached map[string]string, want string) {
	got, ok := cached[id]
	switch {
	case !ok:
		r.Problems = append(r.Problems, &models.CacheInconsistencyError{
			NodeID: id, Kind: kind, Expected: want, Reason: "missing cache entry",
		})
	case got != want:
		r.Problems = append(r.Problems, &models.CacheInconsistencyError{
			NodeID: id, Kind: kind, Cached: got, Expected: want,
		})
	}
}

func loadFolders(ctx context.Context, q Querier, owner string) ([]*models.Folder, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, title, parent_id FROM folders WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("load folders: %w", err)
	}
	defer rows.Close()

	var folders []*models.Folder
	for rows.Next() {
		var parent sql.NullString
		f := &models.Folder{Owner: owner}
		if err := rows.Scan(&f.ID, &f.Title, &parent); err != nil {
			return nil, err
		}
		f.ParentID = parent.String
		folders = append(folders, f)
	}
	return folders, rows.Err()
}

func loadNotes(ctx context.Context, q Querier, owner string) ([]*models.Note, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, title, syntax, parent_id FROM notes WHERE owner_id = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("load notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		var parent sql.NullString
		n := &models.Note{Owner: owner}
		if err := rows.Scan(&n.ID, &n.Title, &n.Syntax, &parent); err != nil {
			return nil, err
		}
		n.ParentID = parent.String
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func loadCache(ctx context.Context, q Querier, query, owner string) (map[string]string, error) {
	rows, err := q.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("load path cache: %w", err)
	}
	defer rows.Close()

	cache := make(map[string]string)
	for rows.Next() {
		var id, path string
		if err := rows.Scan(&id, &path); err != nil {
			return nil, err
		}
		cache[id] = path
	}
	return cache, rows.Err()
}
