package pathcache

import (
	"fmt"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
)

// FolderLookup resolves folder ids to folders without touching the cache.
type FolderLookup interface {
	LookupFolder(id string) (*models.Folder, bool)
}

// FolderMap is an in-memory FolderLookup keyed by folder id.
type FolderMap map[string]*models.Folder

// LookupFolder implements FolderLookup.
func (m FolderMap) LookupFolder(id string) (*models.Folder, bool) {
	f, ok := m[id]
	return f, ok
}

// NewFolderMap indexes folders by id.
func NewFolderMap(folders []*models.Folder) FolderMap {
	m := make(FolderMap, len(folders))
	for _, f := range folders {
		m[f.ID] = f
	}
	return m
}

// ComputeFolderPath derives a folder's full path by walking its ancestors.
// It never reads cached paths, which makes it the reference the cache is
// checked against.
func ComputeFolderPath(f *models.Folder, lookup FolderLookup) (string, error) {
	return computePath(f.ID, models.KindFolder, f.Title, f.ParentID, lookup)
}

// ComputeNotePath derives a note's full path by walking its ancestors.
func ComputeNotePath(n *models.Note, lookup FolderLookup) (string, error) {
	return computePath(n.ID, models.KindNote, n.FileName(), n.ParentID, lookup)
}

func computePath(id string, kind models.NodeKind, segment, parentID string, lookup FolderLookup) (string, error) {
	path := segment
	seen := map[string]bool{id: true}
	for cur := parentID; cur != ""; {
		if seen[cur] {
			return "", &models.CacheInconsistencyError{NodeID: id, Kind: kind, Reason: fmt.Sprintf("ancestor cycle through %s", cur)}
		}
		seen[cur] = true

		parent, ok := lookup.LookupFolder(cur)
		if !ok {
			return "", &models.CacheInconsistencyError{NodeID: id, Kind: kind, Reason: fmt.Sprintf("dangling parent %s", cur)}
		}
		path = models.JoinPath(parent.Title, path)
		cur = parent.ParentID
	}
	return path, nil
}
