// Package backup takes tiered snapshots of the tree store. Each tier keeps
// its own directory of timestamped SQLite copies and retains only the most
// recent Keep of them.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	filePrefix = "snapshot-"
	fileSuffix = ".sqlite"
	timeFormat = "20060102T150405Z"
)

// Tier is one retention class, e.g. hourly snapshots kept for a day.
type Tier struct {
	Name     string        `mapstructure:"name" yaml:"name"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Keep     int           `mapstructure:"keep" yaml:"keep"`
}

// DefaultTiers returns hourly, daily, weekly and monthly tiers.
func DefaultTiers() []Tier {
	return []Tier{
		{Name: "hourly", Interval: time.Hour, Keep: 24},
		{Name: "daily", Interval: 24 * time.Hour, Keep: 7},
		{Name: "weekly", Interval: 7 * 24 * time.Hour, Keep: 4},
		{Name: "monthly", Interval: 30 * 24 * time.Hour, Keep: 12},
	}
}

// Backuper writes a consistent copy of a live database to dest.
type Backuper interface {
	Backup(ctx context.Context, dest string) error
}

// Snapshot is one snapshot file on disk.
type Snapshot struct {
	Tier      string
	Path      string
	CreatedAt time.Time
}

// Snapshotter takes and prunes snapshots. It is safe for concurrent use;
// runs are serialized.
type Snapshotter struct {
	src    Backuper
	dir    string
	tiers  []Tier
	logger *logrus.Entry
	mu     sync.Mutex
}

// New creates a snapshotter writing below dir.
func New(src Backuper, dir string, tiers []Tier, logger *logrus.Entry) *Snapshotter {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	return &Snapshotter{src: src, dir: dir, tiers: tiers, logger: logger}
}

// Tiers returns the configured tiers.
func (s *Snapshotter) Tiers() []Tier {
	return s.tiers
}

// List returns the snapshots of a tier, newest first.
func (s *Snapshotter) List(tier string) ([]Snapshot, error) {
	dir := filepath.Join(s.dir, tier)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileSuffix)
		createdAt, err := time.Parse(timeFormat, stamp)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{Tier: tier, Path: filepath.Join(dir, name), CreatedAt: createdAt})
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// RunOnce takes a snapshot for every tier whose newest snapshot is at least
// one interval older than now, then prunes that tier.
func (s *Snapshotter) RunOnce(ctx context.Context, now time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC().Truncate(time.Second)
	var taken []Snapshot
	for _, tier := range s.tiers {
		existing, err := s.List(tier.Name)
		if err != nil {
			return taken, err
		}
		if len(existing) > 0 && now.Sub(existing[0].CreatedAt) < tier.Interval {
			continue
		}

		snap, err := s.take(ctx, tier.Name, now)
		if err != nil {
			return taken, fmt.Errorf("snapshot tier %s: %w", tier.Name, err)
		}
		taken = append(taken, snap)

		if err := s.prune(tier); err != nil {
			return taken, err
		}
	}
	return taken, nil
}

func (s *Snapshotter) take(ctx context.Context, tier string, now time.Time) (Snapshot, error) {
	dir := filepath.Join(s.dir, tier)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, filePrefix+now.Format(timeFormat)+fileSuffix)
	tmp := path + ".tmp"
	_ = os.Remove(tmp)
	if err := s.src.Backup(ctx, tmp); err != nil {
		_ = os.Remove(tmp)
		return Snapshot{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Snapshot{}, fmt.Errorf("finalize snapshot: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"tier": tier, "path": path}).Info("snapshot taken")
	return Snapshot{Tier: tier, Path: path, CreatedAt: now}, nil
}

// prune removes the oldest snapshots beyond tier.Keep.
func (s *Snapshotter) prune(tier Tier) error {
	if tier.Keep <= 0 {
		return nil
	}
	snapshots, err := s.List(tier.Name)
	if err != nil {
		return err
	}
	for i := tier.Keep; i < len(snapshots); i++ {
		if err := os.Remove(snapshots[i].Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove old snapshot: %w", err)
		}
		s.logger.WithField("path", snapshots[i].Path).Debug("snapshot pruned")
	}
	return nil
}

// Run checks the tiers immediately and then every checkEvery until ctx is
// cancelled. Failed runs are logged and retried on the next tick.
func (s *Snapshotter) Run(ctx context.Context, checkEvery time.Duration) error {
	if checkEvery <= 0 {
		checkEvery = time.Minute
	}

	ticker := time.NewTicker(checkEvery)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx, time.Now()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.WithError(err).Warn("snapshot run failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
