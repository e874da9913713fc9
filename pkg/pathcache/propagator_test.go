package pathcache

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

const testOwner = "owner-1"

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *store.Store
	prop  *Propagator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tree.sqlite"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return &fixture{t: t, ctx: context.Background(), store: st, prop: New(nil)}
}

func (fx *fixture) folder(title, parentID string) *models.Folder {
	fx.t.Helper()
	now := time.Now().UTC()
	f := &models.Folder{ID: models.NewID(), Title: title, ParentID: parentID, Owner: testOwner, CreatedAt: now, UpdatedAt: now}
	require.NoError(fx.t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		if err := tx.InsertFolder(fx.ctx, f); err != nil {
			return err
		}
		return fx.prop.InsertFolder(fx.ctx, tx, f)
	}))
	return f
}

func (fx *fixture) note(title, syntax, parentID string) *models.Note {
	fx.t.Helper()
	now := time.Now().UTC()
	n := &models.Note{ID: models.NewID(), Title: title, Syntax: syntax, ParentID: parentID, Owner: testOwner, CreatedAt: now, UpdatedAt: now}
	require.NoError(fx.t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		if err := tx.InsertNote(fx.ctx, n); err != nil {
			return err
		}
		return fx.prop.InsertNote(fx.ctx, tx, n)
	}))
	return n
}

func (fx *fixture) path(id string) string {
	fx.t.Helper()
	p, _, err := fx.store.Path(fx.ctx, testOwner, id)
	require.NoError(fx.t, err)
	return p
}

func (fx *fixture) updateFolder(id string, mutate func(f *models.Folder)) *Cascade {
	fx.t.Helper()
	var c *Cascade
	require.NoError(fx.t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		f, err := tx.Folder(fx.ctx, testOwner, id)
		if err != nil {
			return err
		}
		mutate(f)
		if err := tx.UpdateFolder(fx.ctx, f); err != nil {
			return err
		}
		c, err = fx.prop.RefreshFolder(fx.ctx, tx, testOwner, id)
		return err
	}))
	return c
}

func (fx *fixture) verify() *Report {
	fx.t.Helper()
	var report *Report
	require.NoError(fx.t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		var err error
		report, err = fx.prop.Verify(fx.ctx, tx, testOwner)
		return err
	}))
	return report
}

func TestInsertPaths(t *testing.T) {
	fx := newFixture(t)

	projects := fx.folder("Projects", "")
	alpha := fx.folder("Alpha", projects.ID)
	todo := fx.note("todo", "md", alpha.ID)
	readme := fx.note("readme", "org", "")

	assert.Equal(t, "Projects", projects.Path)
	assert.Equal(t, "Projects/Alpha", alpha.Path)
	assert.Equal(t, "Projects/Alpha/todo.md", todo.Path)
	assert.Equal(t, "readme.org", readme.Path)

	assert.Equal(t, "Projects/Alpha/todo.md", fx.path(todo.ID))
	assert.True(t, fx.verify().OK())
}

func TestRefreshFolderRenameCascades(t *testing.T) {
	fx := newFixture(t)

	projects := fx.folder("Projects", "")
	alpha := fx.folder("Alpha", projects.ID)
	beta := fx.folder("Beta", alpha.ID)
	todo := fx.note("todo", "md", alpha.ID)
	deep := fx.note("deep", "txt", beta.ID)
	other := fx.folder("Other", "")

	c := fx.updateFolder(projects.ID, func(f *models.Folder) { f.Title = "Work" })

	assert.Equal(t, 3, c.Folders)
	assert.Len(t, c.Notes, 2)
	assert.Equal(t, "Work", fx.path(projects.ID))
	assert.Equal(t, "Work/Alpha", fx.path(alpha.ID))
	assert.Equal(t, "Work/Alpha/Beta", fx.path(beta.ID))
	assert.Equal(t, "Work/Alpha/todo.md", fx.path(todo.ID))
	assert.Equal(t, "Work/Alpha/Beta/deep.txt", fx.path(deep.ID))
	assert.Equal(t, "Other", fx.path(other.ID))
	assert.True(t, fx.verify().OK())
}

func TestRefreshFolderMove(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	b := fx.folder("B", a.ID)
	c := fx.folder("C", "")
	n := fx.note("x", "md", b.ID)

	fx.updateFolder(b.ID, func(f *models.Folder) { f.ParentID = c.ID })
	assert.Equal(t, "C/B", fx.path(b.ID))
	assert.Equal(t, "C/B/x.md", fx.path(n.ID))

	fx.updateFolder(b.ID, func(f *models.Folder) { f.ParentID = "" })
	assert.Equal(t, "B", fx.path(b.ID))
	assert.Equal(t, "B/x.md", fx.path(n.ID))
	assert.True(t, fx.verify().OK())
}

func TestRefreshNote(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	n := fx.note("draft", "md", "")

	require.NoError(t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		note, err := tx.Note(fx.ctx, testOwner, n.ID)
		if err != nil {
			return err
		}
		note.Title = "final"
		note.Syntax = "org"
		note.ParentID = a.ID
		if err := tx.UpdateNote(fx.ctx, note); err != nil {
			return err
		}
		path, err := fx.prop.RefreshNote(fx.ctx, tx, testOwner, n.ID)
		assert.Equal(t, "A/final.org", path)
		return err
	}))
	assert.Equal(t, "A/final.org", fx.path(n.ID))
}

func TestRefreshMissingNode(t *testing.T) {
	fx := newFixture(t)

	err := fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		_, err := fx.prop.RefreshFolder(fx.ctx, tx, testOwner, "nope")
		return err
	})
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		_, err := fx.prop.RefreshNote(fx.ctx, tx, testOwner, "nope")
		return err
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestInsertUnderUncachedParent(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	_, err := fx.store.DB().Exec(`DELETE FROM folder_paths WHERE folder_id = ?`, a.ID)
	require.NoError(t, err)

	now := time.Now().UTC()
	n := &models.Note{ID: models.NewID(), Title: "x", Syntax: "md", ParentID: a.ID, Owner: testOwner, CreatedAt: now, UpdatedAt: now}
	err = fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		if err := tx.InsertNote(fx.ctx, n); err != nil {
			return err
		}
		return fx.prop.InsertNote(fx.ctx, tx, n)
	})
	assert.ErrorIs(t, err, models.ErrCacheInconsistency)

	// the failed transaction left nothing behind
	_, err = fx.store.Note(fx.ctx, testOwner, n.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRebuild(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	b := fx.folder("B", a.ID)
	c := fx.folder("C", b.ID)
	fx.note("root", "md", "")
	deep := fx.note("deep", "md", c.ID)

	_, err := fx.store.DB().Exec(`DELETE FROM note_paths; DELETE FROM folder_paths;`)
	require.NoError(t, err)

	var stale bool
	var stats *RebuildStats
	require.NoError(t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		var err error
		if stale, err = fx.prop.Stale(fx.ctx, tx); err != nil {
			return err
		}
		stats, err = fx.prop.Rebuild(fx.ctx, tx, testOwner)
		return err
	}))
	assert.True(t, stale)
	assert.Equal(t, 3, stats.Layers)
	assert.Equal(t, 3, stats.Folders)
	assert.Equal(t, 2, stats.Notes)
	assert.Equal(t, "A/B/C/deep.md", fx.path(deep.ID))

	require.NoError(t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		var err error
		stale, err = fx.prop.Stale(fx.ctx, tx)
		return err
	}))
	assert.False(t, stale)
	assert.True(t, fx.verify().OK())
}

func TestRebuildEmptyOwner(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		stats, err := fx.prop.Rebuild(fx.ctx, tx, "nobody")
		if err == nil {
			assert.Equal(t, RebuildStats{}, *stats)
		}
		return err
	}))
}

func TestRebuildDetectsCycle(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	b := fx.folder("B", a.ID)
	_, err := fx.store.DB().Exec(`UPDATE folders SET parent_id = ? WHERE id = ?`, b.ID, a.ID)
	require.NoError(t, err)

	err = fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
		_, err := fx.prop.Rebuild(fx.ctx, tx, testOwner)
		return err
	})
	assert.ErrorIs(t, err, models.ErrCacheInconsistency)

	report := fx.verify()
	assert.Len(t, report.Problems, 2)
}

func TestVerifyReportsDrift(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	n := fx.note("x", "md", a.ID)
	_, err := fx.store.DB().Exec(`UPDATE note_paths SET full_path = 'bogus' WHERE note_id = ?`, n.ID)
	require.NoError(t, err)

	report := fx.verify()
	require.Len(t, report.Problems, 1)
	assert.Equal(t, 1, report.Folders)
	assert.Equal(t, 1, report.Notes)
	assert.Equal(t, n.ID, report.Problems[0].NodeID)
	assert.Equal(t, "bogus", report.Problems[0].Cached)
	assert.Equal(t, "A/x.md", report.Problems[0].Expected)
	assert.ErrorIs(t, report.Err(), models.ErrCacheInconsistency)
}

func TestVerifyReportsOrphans(t *testing.T) {
	fx := newFixture(t)

	a := fx.folder("A", "")
	fx.note("kept", "md", a.ID)
	b := fx.folder("B", "")
	n := fx.note("x", "md", a.ID)

	// The nodes move to another owner while their cache rows stay behind.
	_, err := fx.store.DB().Exec(`UPDATE folders SET owner_id = 'owner-2' WHERE id = ?`, b.ID)
	require.NoError(t, err)
	_, err = fx.store.DB().Exec(`UPDATE notes SET owner_id = 'owner-2' WHERE id = ?`, n.ID)
	require.NoError(t, err)

	report := fx.verify()
	assert.Equal(t, 1, report.Folders)
	assert.Equal(t, 1, report.Notes)
	require.Len(t, report.Problems, 2)

	assert.Equal(t, b.ID, report.Problems[0].NodeID)
	assert.Equal(t, models.KindFolder, report.Problems[0].Kind)
	assert.Equal(t, "B", report.Problems[0].Cached)
	assert.Equal(t, "orphan cache entry", report.Problems[0].Reason)

	assert.Equal(t, n.ID, report.Problems[1].NodeID)
	assert.Equal(t, models.KindNote, report.Problems[1].Kind)
	assert.Equal(t, "A/x.md", report.Problems[1].Cached)
	assert.ErrorIs(t, report.Err(), models.ErrCacheInconsistency)
}

// Every cached path must equal the oracle after any sequence of inserts,
// renames and moves.
func TestRandomOperationsKeepCacheCorrect(t *testing.T) {
	fx := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	var folders, notes []string
	pick := func(ids []string) string {
		if len(ids) == 0 || rng.Intn(4) == 0 {
			return ""
		}
		return ids[rng.Intn(len(ids))]
	}

	for i := 0; i < 300; i++ {
		switch op := rng.Intn(5); {
		case op == 0 || len(folders) < 3:
			folders = append(folders, fx.folder(fmt.Sprintf("f%d", i), pick(folders)).ID)
		case op == 1:
			notes = append(notes, fx.note(fmt.Sprintf("n%d", i), "md", pick(folders)).ID)
		case op == 2:
			id := folders[rng.Intn(len(folders))]
			fx.updateFolder(id, func(f *models.Folder) { f.Title = fmt.Sprintf("r%d", i) })
		case op == 3:
			id := folders[rng.Intn(len(folders))]
			target := pick(folders)
			if fx.isWithin(target, id) {
				continue
			}
			fx.updateFolder(id, func(f *models.Folder) {
				f.ParentID = target
				f.Title = fmt.Sprintf("m%d", i)
			})
		case op == 4 && len(notes) > 0:
			id := notes[rng.Intn(len(notes))]
			target := pick(folders)
			require.NoError(t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
				n, err := tx.Note(fx.ctx, testOwner, id)
				if err != nil {
					return err
				}
				n.ParentID = target
				if err := tx.UpdateNote(fx.ctx, n); err != nil {
					return err
				}
				_, err = fx.prop.RefreshNote(fx.ctx, tx, testOwner, id)
				return err
			}))
		}

		if i%25 == 0 {
			report := fx.verify()
			require.NoError(t, report.Err(), "after step %d", i)
		}
	}

	report := fx.verify()
	require.NoError(t, report.Err())
	assert.Equal(t, len(folders), report.Folders)
	assert.Equal(t, len(notes), report.Notes)
}

// isWithin reports whether id is folder or lies below it.
func (fx *fixture) isWithin(id, folder string) bool {
	for cur := id; cur != ""; {
		if cur == folder {
			return true
		}
		var err error
		require.NoError(fx.t, fx.store.WithTx(fx.ctx, func(tx *store.Tx) error {
			cur, err = tx.ParentOf(fx.ctx, testOwner, cur)
			return err
		}))
	}
	return false
}
