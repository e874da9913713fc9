package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/pathcache"
)

// After any sequence of structural operations, every cached path equals the
// path derived from parent pointers alone.
func TestRandomStructuralOperations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	titles := []string{"a", "b", "c", "Notes", "index", "é"}
	randomID := func(ids map[string]bool) string {
		for id := range ids {
			if rng.Intn(3) == 0 {
				return id
			}
		}
		return ""
	}

	folders := map[string]bool{}
	notes := map[string]bool{}

	// Duplicate names, cycles and ambiguous conversions are expected; any
	// other error is a failure.
	allowed := func(err error) bool {
		return err == nil ||
			errors.Is(err, models.ErrDuplicateName) ||
			errors.Is(err, models.ErrCyclicMove) ||
			errors.Is(err, models.ErrAmbiguousConversion) ||
			errors.Is(err, models.ErrInvalidIndexTitle)
	}

	for i := 0; i < 400; i++ {
		title := titles[rng.Intn(len(titles))]
		var err error

		switch rng.Intn(8) {
		case 0, 1:
			var f *models.Folder
			if f, err = svc.CreateFolder(ctx, alice, title, randomID(folders)); err == nil {
				folders[f.ID] = true
			}
		case 2, 3:
			var n *models.Note
			if n, err = svc.CreateNote(ctx, alice, models.NoteInput{Title: title, ParentID: randomID(folders)}); err == nil {
				notes[n.ID] = true
			}
		case 4:
			if id := randomID(folders); id != "" {
				_, err = svc.Rename(ctx, alice, id, fmt.Sprintf("%s%d", title, i))
			}
		case 5:
			if id := randomID(folders); id != "" {
				_, err = svc.Move(ctx, alice, id, randomID(folders))
			} else if id := randomID(notes); id != "" {
				_, err = svc.Move(ctx, alice, id, randomID(folders))
			}
		case 6:
			if id := randomID(notes); id != "" {
				var conv *Conversion
				if conv, err = svc.ConvertNoteToFolder(ctx, alice, id); err == nil {
					folders[conv.Folder.ID] = true
				}
			} else if id := randomID(folders); id != "" {
				var n *models.Note
				if n, err = svc.ConvertFolderToNote(ctx, alice, id); err == nil {
					delete(folders, id)
					notes[n.ID] = true
				}
			}
		case 7:
			if rng.Intn(4) == 0 {
				if id := randomID(folders); id != "" {
					err = svc.Delete(ctx, alice, id)
					if err == nil {
						folders, notes = survivors(t, svc, folders, notes)
					}
				}
			}
		}
		require.True(t, allowed(err), "step %d: %v", i, err)
	}

	assertMatchesOracle(t, svc)
}

func survivors(t *testing.T, svc *Service, folders, notes map[string]bool) (map[string]bool, map[string]bool) {
	t.Helper()
	keep := func(ids map[string]bool) map[string]bool {
		out := map[string]bool{}
		for id := range ids {
			_, err := svc.GetNode(context.Background(), alice, id)
			if err == nil {
				out[id] = true
				continue
			}
			require.ErrorIs(t, err, models.ErrNotFound)
		}
		return out
	}
	return keep(folders), keep(notes)
}

func assertMatchesOracle(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()

	folders, err := svc.ListFolders(ctx, alice)
	require.NoError(t, err)
	notes, err := svc.ListNotes(ctx, alice)
	require.NoError(t, err)

	lookup := pathcache.NewFolderMap(folders)
	for _, f := range folders {
		want, err := pathcache.ComputeFolderPath(f, lookup)
		require.NoError(t, err)
		require.Equal(t, want, f.Path, "folder %s", f.ID)
	}
	for _, n := range notes {
		want, err := pathcache.ComputeNotePath(n, lookup)
		require.NoError(t, err)
		require.Equal(t, want, n.Path, "note %s", n.ID)
	}
	requireCacheOK(t, svc, alice)
}
