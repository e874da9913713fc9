package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackuper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeBackuper) Backup(ctx context.Context, dest string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(dest, []byte("snapshot"), 0644)
}

func (f *fakeBackuper) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestRunOnceTakesDueTiers(t *testing.T) {
	dir := t.TempDir()
	src := &fakeBackuper{}
	tiers := []Tier{
		{Name: "hourly", Interval: time.Hour, Keep: 2},
		{Name: "daily", Interval: 24 * time.Hour, Keep: 1},
	}
	s := New(src, dir, tiers, nil)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	taken, err := s.RunOnce(ctx, start)
	require.NoError(t, err)
	assert.Len(t, taken, 2)

	// nothing is due half an hour later
	taken, err = s.RunOnce(ctx, start.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, taken)

	taken, err = s.RunOnce(ctx, start.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, taken, 1)
	assert.Equal(t, "hourly", taken[0].Tier)

	_, err = s.RunOnce(ctx, start.Add(2*time.Hour))
	require.NoError(t, err)

	hourly, err := s.List("hourly")
	require.NoError(t, err)
	require.Len(t, hourly, 2)
	assert.Equal(t, start.Add(2*time.Hour), hourly[0].CreatedAt)
	assert.Equal(t, start.Add(time.Hour), hourly[1].CreatedAt)

	daily, err := s.List("daily")
	require.NoError(t, err)
	assert.Len(t, daily, 1)
	assert.Equal(t, 4, src.count())
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s := New(&fakeBackuper{}, dir, []Tier{{Name: "hourly", Interval: time.Hour, Keep: 3}}, nil)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hourly"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hourly", "notes.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hourly", "snapshot-garbage.sqlite"), nil, 0644))

	snapshots, err := s.List("hourly")
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	missing, err := s.List("weekly")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRunOnceFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	src := &fakeBackuper{err: errors.New("disk full")}
	s := New(src, dir, []Tier{{Name: "hourly", Interval: time.Hour, Keep: 3}}, nil)

	_, err := s.RunOnce(context.Background(), time.Now())
	assert.ErrorContains(t, err, "disk full")

	entries, err := os.ReadDir(filepath.Join(dir, "hourly"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeBackuper{}
	s := New(src, t.TempDir(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return src.count() >= len(DefaultTiers()) }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
