package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/search"
	"github.com/RyanGreenup/lilium-sub000/pkg/tree"
)

// GetPath returns a node's full path from the cache.
func (s *Service) GetPath(ctx context.Context, owner, id string) (string, error) {
	path, _, err := s.store.Path(ctx, owner, id)
	return path, err
}

// GetNode returns the node view of a folder or note.
func (s *Service) GetNode(ctx context.Context, owner, id string) (*models.Node, error) {
	return s.store.Node(ctx, owner, id)
}

// GetNote returns a note including its content.
func (s *Service) GetNote(ctx context.Context, owner, id string) (*models.Note, error) {
	return s.store.Note(ctx, owner, id)
}

// GetDescendantsByPrefix returns every node below folderID, ordered by path.
func (s *Service) GetDescendantsByPrefix(ctx context.Context, owner, folderID string) ([]*models.Node, error) {
	return s.store.Descendants(ctx, owner, folderID)
}

// GetAncestorChain returns the folders from the root down to the node's
// immediate parent.
func (s *Service) GetAncestorChain(ctx context.Context, owner, id string) ([]*models.Folder, error) {
	return s.store.Ancestors(ctx, owner, id)
}

// GetChildren lists the direct children of folderID, or the root nodes when
// folderID is empty.
func (s *Service) GetChildren(ctx context.Context, owner, folderID string) ([]*models.Node, error) {
	return s.store.Children(ctx, owner, folderID)
}

// ResolvePath finds the node at a full path such as "Projects/todo.md".
// Surrounding slashes are ignored.
func (s *Service) ResolvePath(ctx context.Context, owner, path string) (*models.Node, error) {
	segments := strings.Split(strings.Trim(path, models.PathSeparator), models.PathSeparator)
	for i, seg := range segments {
		title, err := models.NormalizeTitle(seg)
		if err != nil {
			return nil, &models.NotFoundError{ID: path}
		}
		segments[i] = title
	}
	return s.store.ResolvePath(ctx, owner, strings.Join(segments, models.PathSeparator))
}

// Tree returns the nested tree below folderID, or the whole tree for "".
func (s *Service) Tree(ctx context.Context, owner, folderID string) ([]*tree.Item, error) {
	var nodes []*models.Node
	var err error
	if folderID == "" {
		nodes, err = s.store.AllNodes(ctx, owner)
	} else {
		nodes, err = s.store.Descendants(ctx, owner, folderID)
	}
	if err != nil {
		return nil, err
	}
	return tree.Build(nodes, folderID), nil
}

// ListFolders returns every folder of owner, ordered by path.
func (s *Service) ListFolders(ctx context.Context, owner string) ([]*models.Folder, error) {
	return s.store.Folders(ctx, owner)
}

// ListNotes returns every note of owner, ordered by path.
func (s *Service) ListNotes(ctx context.Context, owner string) ([]*models.Note, error) {
	return s.store.Notes(ctx, owner)
}

// History returns the most recent mutations, newest first.
func (s *Service) History(ctx context.Context, owner string, limit int) ([]*models.HistoryEntry, error) {
	return s.store.History(ctx, owner, limit)
}

// Search runs a full-text query over the owner's notes.
func (s *Service) Search(ctx context.Context, owner, query string, options ...SearchOption) ([]*search.Result, error) {
	opts := &searchOptions{
		limit: 50,
	}
	for _, opt := range options {
		opt(opts)
	}

	searchOpts := &search.Options{Owner: owner, Limit: opts.limit}
	if opts.under != "" {
		path, kind, err := s.store.Path(ctx, owner, opts.under)
		if err != nil {
			return nil, err
		}
		if kind != models.KindFolder {
			return nil, &models.NotFoundError{Kind: models.KindFolder, ID: opts.under}
		}
		searchOpts.Under = path
	}

	results, err := s.Index.Search(query, searchOpts)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return results, nil
}
