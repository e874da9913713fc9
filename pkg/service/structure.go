package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/pathcache"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

// History operation names.
const (
	OpCreate          = "create"
	OpRename          = "rename"
	OpMove            = "move"
	OpDelete          = "delete"
	OpConvertToFolder = "convert_to_folder"
	OpConvertToNote   = "convert_to_note"
	OpEdit            = "edit"
	OpChangeSyntax    = "change_syntax"
)

// requireFolder fails with NotFoundError unless id is "" (the root) or an
// existing folder of owner.
func requireFolder(ctx context.Context, tx *store.Tx, owner, id string) error {
	if id == "" {
		return nil
	}
	_, err := tx.Folder(ctx, owner, id)
	return err
}

// CreateFolder creates a folder under parentID ("" for the root).
func (s *Service) CreateFolder(ctx context.Context, owner, title, parentID string) (*models.Folder, error) {
	title, err := models.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := s.now()
	f := &models.Folder{
		ID:        models.NewID(),
		Title:     title,
		ParentID:  parentID,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := requireFolder(ctx, tx, owner, parentID); err != nil {
			return err
		}
		if err := tx.InsertFolder(ctx, f); err != nil {
			return err
		}
		if err := s.cache.InsertFolder(ctx, tx, f); err != nil {
			return err
		}
		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpCreate, NodeID: f.ID, Kind: models.KindFolder, AfterPath: f.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"owner": owner, "node_id": f.ID, "path": f.Path}).Debug("folder created")
	return f, nil
}

// CreateNote creates a note. An empty syntax selects the configured default.
func (s *Service) CreateNote(ctx context.Context, owner string, in models.NoteInput) (*models.Note, error) {
	title, err := models.NormalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	syntax := in.Syntax
	if syntax == "" {
		syntax = s.Config.DefaultSyntax
	}
	if syntax, err = models.NormalizeSyntax(syntax); err != nil {
		return nil, err
	}

	now := s.now()
	n := &models.Note{
		ID:        models.NewID(),
		Title:     title,
		Abstract:  in.Abstract,
		Content:   in.Content,
		Syntax:    syntax,
		ParentID:  in.ParentID,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := requireFolder(ctx, tx, owner, in.ParentID); err != nil {
			return err
		}
		if err := tx.InsertNote(ctx, n); err != nil {
			return err
		}
		if err := s.cache.InsertNote(ctx, tx, n); err != nil {
			return err
		}
		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpCreate, NodeID: n.ID, Kind: models.KindNote, AfterPath: n.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.indexNote(n)
	s.logger.WithFields(logrus.Fields{"owner": owner, "node_id": n.ID, "path": n.Path}).Debug("note created")
	return n, nil
}

// Rename changes a node's title. Renaming a folder rewrites the cached path
// of everything below it in the same transaction.
func (s *Service) Rename(ctx context.Context, owner, id, title string) (*models.Node, error) {
	title, err := models.NormalizeTitle(title)
	if err != nil {
		return nil, err
	}

	var node *models.Node
	var note *models.Note
	var cascade *pathcache.Cascade

	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		kind, err := tx.Kind(ctx, owner, id)
		if err != nil {
			return err
		}

		var before string
		switch kind {
		case models.KindFolder:
			f, err := tx.Folder(ctx, owner, id)
			if err != nil {
				return err
			}
			before = f.Path
			f.Title = title
			f.UpdatedAt = s.now()
			if err := tx.UpdateFolder(ctx, f); err != nil {
				return err
			}
			if cascade, err = s.cache.RefreshFolder(ctx, tx, owner, id); err != nil {
				return err
			}
			f.Path = cascade.Path
			node = models.FolderNode(f)
		default:
			n, err := tx.Note(ctx, owner, id)
			if err != nil {
				return err
			}
			before = n.Path
			n.Title = title
			n.UpdatedAt = s.now()
			if err := tx.UpdateNote(ctx, n); err != nil {
				return err
			}
			if n.Path, err = s.cache.RefreshNote(ctx, tx, owner, id); err != nil {
				return err
			}
			note = n
			node = models.NoteNode(n)
		}

		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpRename, NodeID: id, Kind: kind, BeforePath: before, AfterPath: node.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	if note != nil {
		s.indexNote(note)
	}
	s.reindexPaths(cascade)
	s.logNodeChange("node renamed", owner, node, cascade)
	return node, nil
}

// Move reparents a node under newParentID ("" for the root). Moving a folder
// into itself or into one of its descendants fails with CyclicMoveError and
// changes nothing.
func (s *Service) Move(ctx context.Context, owner, id, newParentID string) (*models.Node, error) {
	var node *models.Node
	var cascade *pathcache.Cascade

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		kind, err := tx.Kind(ctx, owner, id)
		if err != nil {
			return err
		}
		if err := requireFolder(ctx, tx, owner, newParentID); err != nil {
			return err
		}

		var before string
		switch kind {
		case models.KindFolder:
			if err := checkCycle(ctx, tx, owner, id, newParentID); err != nil {
				return err
			}
			f, err := tx.Folder(ctx, owner, id)
			if err != nil {
				return err
			}
			before = f.Path
			f.ParentID = newParentID
			f.UpdatedAt = s.now()
			if err := tx.UpdateFolder(ctx, f); err != nil {
				return err
			}
			if cascade, err = s.cache.RefreshFolder(ctx, tx, owner, id); err != nil {
				return err
			}
			f.Path = cascade.Path
			node = models.FolderNode(f)
		default:
			n, err := tx.Note(ctx, owner, id)
			if err != nil {
				return err
			}
			before = n.Path
			n.ParentID = newParentID
			n.UpdatedAt = s.now()
			if err := tx.UpdateNote(ctx, n); err != nil {
				return err
			}
			if n.Path, err = s.cache.RefreshNote(ctx, tx, owner, id); err != nil {
				return err
			}
			node = models.NoteNode(n)
		}

		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpMove, NodeID: id, Kind: kind, BeforePath: before, AfterPath: node.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	if node.IsFolder() {
		s.reindexPaths(cascade)
	} else {
		s.reindexPaths(&pathcache.Cascade{Notes: []models.PathEntry{{
			NodeID: node.ID, Kind: models.KindNote, Owner: owner, FullPath: node.Path,
		}}})
	}
	s.logNodeChange("node moved", owner, node, cascade)
	return node, nil
}

// checkCycle walks the ancestor chain of target and fails if it reaches
// folderID.
func checkCycle(ctx context.Context, tx *store.Tx, owner, folderID, target string) error {
	seen := make(map[string]bool)
	for cur := target; cur != ""; {
		if cur == folderID {
			return &models.CyclicMoveError{NodeID: folderID, NewParentID: target}
		}
		if seen[cur] {
			return &models.CacheInconsistencyError{
				NodeID: cur,
				Kind:   models.KindFolder,
				Reason: "ancestor cycle in tree",
			}
		}
		seen[cur] = true

		parent, err := tx.ParentOf(ctx, owner, cur)
		if err != nil {
			return fmt.Errorf("walk ancestors of %s: %w", target, err)
		}
		cur = parent
	}
	return nil
}

// Delete removes a node. Deleting a folder removes every descendant folder
// and note along with their cached paths.
func (s *Service) Delete(ctx context.Context, owner, id string) error {
	var removedNotes []string

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		kind, err := tx.Kind(ctx, owner, id)
		if err != nil {
			return err
		}

		var before string
		switch kind {
		case models.KindFolder:
			f, err := tx.Folder(ctx, owner, id)
			if err != nil {
				return err
			}
			before = f.Path
			if removedNotes, err = tx.SubtreeNoteIDs(ctx, owner, id); err != nil {
				return err
			}
			if err := tx.DeleteFolder(ctx, owner, id); err != nil {
				return err
			}
		default:
			n, err := tx.Note(ctx, owner, id)
			if err != nil {
				return err
			}
			before = n.Path
			removedNotes = []string{id}
			if err := tx.DeleteNote(ctx, owner, id); err != nil {
				return err
			}
		}

		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpDelete, NodeID: id, Kind: kind, BeforePath: before,
		})
	})
	if err != nil {
		return err
	}

	s.unindex(removedNotes)
	s.logger.WithFields(logrus.Fields{"owner": owner, "node_id": id, "notes": len(removedNotes)}).Debug("node deleted")
	return nil
}

func (s *Service) logNodeChange(msg, owner string, node *models.Node, cascade *pathcache.Cascade) {
	fields := logrus.Fields{"owner": owner, "node_id": node.ID, "path": node.Path}
	if cascade != nil {
		fields["folders"] = cascade.Folders
		fields["notes"] = len(cascade.Notes)
	}
	s.logger.WithFields(fields).Debug(msg)
}
