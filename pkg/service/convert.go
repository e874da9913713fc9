package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

// Conversion is the result of turning a note into a folder: the new folder
// and the original note, now its "index" child.
type Conversion struct {
	Folder *models.Folder
	Note   *models.Note
}

// ConvertNoteToFolder replaces a note with a folder of the same title and
// parent and keeps the note, unchanged apart from its title, as the folder's
// index note. The folder is created first, then the note is moved into it,
// then renamed.
func (s *Service) ConvertNoteToFolder(ctx context.Context, owner, noteID string) (*Conversion, error) {
	var conv Conversion

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.Note(ctx, owner, noteID)
		if err != nil {
			return err
		}
		before := n.Path
		now := s.now()

		f := &models.Folder{
			ID:        models.NewID(),
			Title:     n.Title,
			ParentID:  n.ParentID,
			Owner:     owner,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.InsertFolder(ctx, f); err != nil {
			return err
		}
		if err := s.cache.InsertFolder(ctx, tx, f); err != nil {
			return err
		}

		n.ParentID = f.ID
		n.UpdatedAt = now
		if err := tx.UpdateNote(ctx, n); err != nil {
			return err
		}
		if _, err := s.cache.RefreshNote(ctx, tx, owner, n.ID); err != nil {
			return err
		}

		n.Title = models.IndexTitle
		if err := tx.UpdateNote(ctx, n); err != nil {
			return err
		}
		if n.Path, err = s.cache.RefreshNote(ctx, tx, owner, n.ID); err != nil {
			return err
		}

		conv = Conversion{Folder: f, Note: n}
		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpConvertToFolder, NodeID: n.ID, Kind: models.KindNote, BeforePath: before, AfterPath: n.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.indexNote(conv.Note)
	s.logger.WithFields(logrus.Fields{
		"owner":     owner,
		"note_id":   conv.Note.ID,
		"folder_id": conv.Folder.ID,
		"path":      conv.Folder.Path,
	}).Debug("note converted to folder")
	return &conv, nil
}

// ConvertFolderToNote collapses a folder into a note at the folder's place.
// The folder may hold no sub-folders and at most one note, which must be
// titled "index". An empty folder becomes a new empty note; otherwise the
// index note takes over the folder's title and parent, keeping its id.
func (s *Service) ConvertFolderToNote(ctx context.Context, owner, folderID string) (*models.Note, error) {
	var note *models.Note

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		f, err := tx.Folder(ctx, owner, folderID)
		if err != nil {
			return err
		}
		subFolders, err := tx.ChildFolders(ctx, owner, folderID)
		if err != nil {
			return err
		}
		notes, err := tx.ChildNotes(ctx, owner, folderID)
		if err != nil {
			return err
		}
		if len(subFolders) > 0 || len(notes) > 1 {
			return &models.AmbiguousConversionError{FolderID: folderID, Folders: len(subFolders), Notes: len(notes)}
		}

		now := s.now()
		if len(notes) == 0 {
			note = &models.Note{
				ID:        models.NewID(),
				Title:     f.Title,
				Syntax:    s.Config.DefaultSyntax,
				ParentID:  f.ParentID,
				Owner:     owner,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.InsertNote(ctx, note); err != nil {
				return err
			}
			if err := s.cache.InsertNote(ctx, tx, note); err != nil {
				return err
			}
		} else {
			note = notes[0]
			if note.Title != models.IndexTitle {
				return &models.InvalidIndexTitleError{FolderID: folderID, Title: note.Title}
			}
			note.Title = f.Title
			note.ParentID = f.ParentID
			note.UpdatedAt = now
			if err := tx.UpdateNote(ctx, note); err != nil {
				return err
			}
			if note.Path, err = s.cache.RefreshNote(ctx, tx, owner, note.ID); err != nil {
				return err
			}
		}

		if err := tx.DeleteFolder(ctx, owner, folderID); err != nil {
			return err
		}

		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpConvertToNote, NodeID: folderID, Kind: models.KindFolder, BeforePath: f.Path, AfterPath: note.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.indexNote(note)
	s.logger.WithFields(logrus.Fields{
		"owner":     owner,
		"folder_id": folderID,
		"note_id":   note.ID,
		"path":      note.Path,
	}).Debug("folder converted to note")
	return note, nil
}
