package service

import (
	"context"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

// UpdateNoteContent replaces a note's content, and its abstract when one is
// given. The note's path does not change.
func (s *Service) UpdateNoteContent(ctx context.Context, owner, id, content string, abstract *string) (*models.Note, error) {
	var note *models.Note

	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.Note(ctx, owner, id)
		if err != nil {
			return err
		}
		n.Content = content
		if abstract != nil {
			n.Abstract = *abstract
		}
		n.UpdatedAt = s.now()
		if err := tx.SetNoteContent(ctx, n); err != nil {
			return err
		}
		note = n
		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpEdit, NodeID: id, Kind: models.KindNote, BeforePath: n.Path, AfterPath: n.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.indexNote(note)
	return note, nil
}

// ChangeSyntax switches a note's syntax, which renames it from e.g.
// "todo.md" to "todo.org".
func (s *Service) ChangeSyntax(ctx context.Context, owner, id, syntax string) (*models.Note, error) {
	syntax, err := models.NormalizeSyntax(syntax)
	if err != nil {
		return nil, err
	}

	var note *models.Note
	err = s.store.WithTx(ctx, func(tx *store.Tx) error {
		n, err := tx.Note(ctx, owner, id)
		if err != nil {
			return err
		}
		before := n.Path
		n.Syntax = syntax
		n.UpdatedAt = s.now()
		if err := tx.UpdateNote(ctx, n); err != nil {
			return err
		}
		if n.Path, err = s.cache.RefreshNote(ctx, tx, owner, id); err != nil {
			return err
		}
		note = n
		return s.record(ctx, tx, &models.HistoryEntry{
			Owner: owner, Op: OpChangeSyntax, NodeID: id, Kind: models.KindNote, BeforePath: before, AfterPath: n.Path,
		})
	})
	if err != nil {
		return nil, err
	}

	s.indexNote(note)
	return note, nil
}
