package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/pathcache"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

// EnsureCache rebuilds the path cache of every owner when its row counts
// disagree with the tree. It runs once at startup.
func (s *Service) EnsureCache(ctx context.Context) error {
	rebuilt := false
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		stale, err := s.cache.Stale(ctx, tx)
		if err != nil || !stale {
			return err
		}

		owners, err := tx.Owners(ctx)
		if err != nil {
			return err
		}
		for _, owner := range owners {
			if _, err := s.cache.Rebuild(ctx, tx, owner); err != nil {
				return fmt.Errorf("rebuild path cache for %s: %w", owner, err)
			}
		}
		rebuilt = true
		return nil
	})
	if err != nil {
		return err
	}

	if rebuilt {
		s.logger.Warn("path cache was stale and has been rebuilt")
		owners, err := s.store.Owners(ctx)
		if err != nil {
			return err
		}
		for _, owner := range owners {
			if _, err := s.Reindex(ctx, owner); err != nil {
				s.logger.WithError(err).WithField("owner", owner).Warn("failed to reindex notes")
			}
		}
	}
	return nil
}

// Rebuild recomputes the owner's path cache from the tree and reindexes the
// owner's notes.
func (s *Service) Rebuild(ctx context.Context, owner string) (*pathcache.RebuildStats, error) {
	var stats *pathcache.RebuildStats
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		stats, err = s.cache.Rebuild(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.Reindex(ctx, owner); err != nil {
		return stats, err
	}
	return stats, nil
}

// Check compares every cached path of owner with the path derived from the
// tree.
func (s *Service) Check(ctx context.Context, owner string) (*pathcache.Report, error) {
	var report *pathcache.Report
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		report, err = s.cache.Verify(ctx, tx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"owner":    owner,
		"folders":  report.Folders,
		"notes":    report.Notes,
		"problems": len(report.Problems),
	}).Debug("path cache checked")
	return report, nil
}

// Reindex replaces the owner's search index entries with the current notes.
func (s *Service) Reindex(ctx context.Context, owner string) (int, error) {
	notes, err := s.store.Notes(ctx, owner)
	if err != nil {
		return 0, err
	}
	if err := s.Index.Clear(owner); err != nil {
		return 0, fmt.Errorf("clear index: %w", err)
	}
	for _, n := range notes {
		if err := s.Index.IndexNote(n); err != nil {
			return 0, fmt.Errorf("index note %s: %w", n.ID, err)
		}
	}
	return len(notes), nil
}

// Backup writes an online snapshot of the tree store to dest.
func (s *Service) Backup(ctx context.Context, dest string) error {
	return s.store.Backup(ctx, dest)
}
