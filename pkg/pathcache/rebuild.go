package pathcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

const (
	rebuildRootFolders = `
		INSERT INTO folder_paths (folder_id, owner_id, full_path)
		SELECT id, owner_id, title FROM folders
		WHERE owner_id = ? AND parent_id IS NULL`

	// One layer per execution: the SELECT only sees folders whose parent
	// already has a row and which have none themselves.
	rebuildFolderLayer = `
		INSERT INTO folder_paths (folder_id, owner_id, full_path)
		SELECT f.id, f.owner_id, p.full_path || '/' || f.title
		FROM folders f
		JOIN folder_paths p ON p.folder_id = f.parent_id
		WHERE f.owner_id = ?
		  AND NOT EXISTS (SELECT 1 FROM folder_paths x WHERE x.folder_id = f.id)`

	rebuildNotes = `
		INSERT INTO note_paths (note_id, owner_id, full_path)
		SELECT n.id, n.owner_id,
		       CASE WHEN n.parent_id IS NULL THEN n.title || '.' || n.syntax
		            ELSE p.full_path || '/' || n.title || '.' || n.syntax END
		FROM notes n
		LEFT JOIN folder_paths p ON p.folder_id = n.parent_id
		WHERE n.owner_id = ?
		  AND (n.parent_id IS NULL OR p.folder_id IS NOT NULL)`

	unreachedFolder = `
		SELECT f.id FROM folders f
		WHERE f.owner_id = ?
		  AND NOT EXISTS (SELECT 1 FROM folder_paths p WHERE p.folder_id = f.id)
		LIMIT 1`
)

// Rebuild discards the owner's cache rows and recomputes them breadth-first
// from the root folders. A folder the walk cannot reach means the tree itself
// contains a cycle and is reported as a CacheInconsistencyError.
func (p *Propagator) Rebuild(ctx context.Context, q Querier, owner string) (*RebuildStats, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM note_paths WHERE owner_id = ?`, owner); err != nil {
		return nil, fmt.Errorf("clear note paths: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM folder_paths WHERE owner_id = ?`, owner); err != nil {
		return nil, fmt.Errorf("clear folder paths: %w", err)
	}

	stats := &RebuildStats{}
	res, err := q.ExecContext(ctx, rebuildRootFolders, owner)
	if err != nil {
		return nil, fmt.Errorf("rebuild root folders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n > 0 {
		stats.Layers = 1
		stats.Folders = int(n)
	}

	for n > 0 {
		res, err = q.ExecContext(ctx, rebuildFolderLayer, owner)
		if err != nil {
			return nil, fmt.Errorf("rebuild folder layer %d: %w", stats.Layers+1, err)
		}
		if n, err = res.RowsAffected(); err != nil {
			return nil, err
		}
		if n > 0 {
			stats.Layers++
			stats.Folders += int(n)
		}
	}

	var stray string
	err = q.QueryRowContext(ctx, unreachedFolder, owner).Scan(&stray)
	switch {
	case err == nil:
		return nil, &models.CacheInconsistencyError{
			NodeID: stray,
			Kind:   models.KindFolder,
			Reason: "folder is not reachable from any root",
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("check unreached folders: %w", err)
	}

	res, err = q.ExecContext(ctx, rebuildNotes, owner)
	if err != nil {
		return nil, fmt.Errorf("rebuild note paths: %w", err)
	}
	if n, err = res.RowsAffected(); err != nil {
		return nil, err
	}
	stats.Notes = int(n)

	recordRebuild(ctx)
	p.logger.WithFields(logrus.Fields{
		"owner":   owner,
		"layers":  stats.Layers,
		"folders": stats.Folders,
		"notes":   stats.Notes,
	}).Info("path cache rebuilt")
	return stats, nil
}

// Stale reports whether the cache tables hold a different number of rows
// than the tree, which is the case after an unclean import or when the cache
// tables were created over an existing tree.
func (p *Propagator) Stale(ctx context.Context, q Querier) (bool, error) {
	var stale bool
	err := q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM folders) <> (SELECT COUNT(*) FROM folder_paths)
		    OR (SELECT COUNT(*) FROM notes) <> (SELECT COUNT(*) FROM note_paths)
	`).Scan(&stale)
	if err != nil {
		return false, fmt.Errorf("count cache rows: %w", err)
	}
	return stale, nil
}
