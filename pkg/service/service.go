package service

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/pathcache"
	"github.com/RyanGreenup/lilium-sub000/pkg/search"
	"github.com/RyanGreenup/lilium-sub000/pkg/store"
)

const (
	storeFile = "notes.sqlite"
	indexFile = "index.db"

	defaultHistoryLimit = 500
)

// Service is the core note service
type Service struct {
	store  *store.Store
	cache  *pathcache.Propagator
	Index  *search.Index
	Config *Config
	logger *logrus.Entry
	now    func() time.Time
}

// Config holds service configuration
type Config struct {
	DataDir       string
	DefaultSyntax string
	HistoryLimit  int
}

// New opens the tree store and the search index under config.DataDir and
// rebuilds the path cache if it is stale.
func New(config *Config, logger *logrus.Entry) (*Service, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	st, err := store.Open(filepath.Join(config.DataDir, storeFile), logger.WithField("component", "store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	index, err := search.NewIndex(filepath.Join(config.DataDir, indexFile))
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	s := newService(config, st, index, logger)
	if err := s.EnsureCache(context.Background()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newService(config *Config, st *store.Store, index *search.Index, logger *logrus.Entry) *Service {
	if config.DefaultSyntax == "" {
		config.DefaultSyntax = models.DefaultSyntax
	}
	if config.HistoryLimit == 0 {
		config.HistoryLimit = defaultHistoryLimit
	}
	return &Service{
		store:  st,
		cache:  pathcache.New(logger.WithField("component", "pathcache")),
		Index:  index,
		Config: config,
		logger: logger,
		now: func() time.Time {
			return time.Now().UTC().Truncate(time.Millisecond)
		},
	}
}

// Store exposes the tree store for snapshotting and export.
func (s *Service) Store() *store.Store {
	return s.store
}

// Close closes the service
func (s *Service) Close() error {
	var firstErr error
	if s.Index != nil {
		if err := s.Index.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type searchOptions struct {
	under string
	limit int
}

// SearchOption narrows a search
type SearchOption func(*searchOptions)

// Under restricts results to notes below the given folder
func Under(folderID string) SearchOption {
	return func(o *searchOptions) {
		o.under = folderID
	}
}

// WithLimit caps the number of results
func WithLimit(limit int) SearchOption {
	return func(o *searchOptions) {
		o.limit = limit
	}
}

// record appends a history row inside the mutating transaction.
func (s *Service) record(ctx context.Context, tx *store.Tx, e *models.HistoryEntry) error {
	e.CreatedAt = s.now()
	return tx.AppendHistory(ctx, e, s.Config.HistoryLimit)
}

// The search index lives in its own database and is refreshed after commit.
// Failures there leave the tree intact, so they are logged, not returned.

func (s *Service) indexNote(n *models.Note) {
	if err := s.Index.IndexNote(n); err != nil {
		s.logger.WithError(err).WithField("note_id", n.ID).Warn("failed to index note")
	}
}

func (s *Service) reindexPaths(c *pathcache.Cascade) {
	if c == nil || len(c.Notes) == 0 {
		return
	}
	if err := s.Index.UpdatePaths(c.Notes); err != nil {
		s.logger.WithError(err).WithField("notes", len(c.Notes)).Warn("failed to update indexed paths")
	}
}

func (s *Service) unindex(ids []string) {
	if err := s.Index.RemoveNotes(ids...); err != nil {
		s.logger.WithError(err).WithField("notes", len(ids)).Warn("failed to remove notes from index")
	}
}
