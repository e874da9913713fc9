// Package store provides the SQLite-backed tree store: folders, notes, the
// path cache tables and the bounded history log. Structural writes go through
// WithTx so that a tree change and its path cascade commit together.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// backupPagesPerStep bounds how long the source database is held per backup step.
const backupPagesPerStep = 256

// Store is the SQLite-backed tree store.
type Store struct {
	db     *sql.DB
	path   string
	logger *logrus.Entry
}

// Open opens the database at path, creating it if needed, and applies any
// pending schema migrations.
func Open(path string, logger *logrus.Entry) (*Store, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.WithField("path", path).Debug("tree store opened")
	return &Store{db: db, path: path, logger: logger}, nil
}

// NewWithDB wraps an already-open database without running migrations.
func NewWithDB(db *sql.DB, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Store{db: db, logger: logger}
}

// dsn enables foreign keys (cascading deletes), WAL so readers never block on
// the writer, and BEGIN IMMEDIATE so write transactions serialize up front.
func dsn(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
}

// DB exposes the underlying handle for read-only collaborators.
func (s *Store) DB() *sql.DB {
	return s.db
}

// File is the database file location, empty for stores built with NewWithDB.
func (s *Store) File() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back on error or panic.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&Tx{Tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Backup copies the live database into dest using SQLite's online backup
// API. Writers are not blocked for the whole copy, only per step.
func (s *Store) Backup(ctx context.Context, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	destDB, err := sql.Open("sqlite3", dest)
	if err != nil {
		return fmt.Errorf("open backup target: %w", err)
	}
	defer destDB.Close()

	destConn, err := destDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect backup target: %w", err)
	}
	defer destConn.Close()

	srcConn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	defer srcConn.Close()

	return destConn.Raw(func(destRaw any) error {
		return srcConn.Raw(func(srcRaw any) error {
			destLite, ok := destRaw.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("backup target is %T, not a sqlite3 connection", destRaw)
			}
			srcLite, ok := srcRaw.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("backup source is %T, not a sqlite3 connection", srcRaw)
			}

			b, err := destLite.Backup("main", srcLite, "main")
			if err != nil {
				return fmt.Errorf("start backup: %w", err)
			}
			for {
				done, err := b.Step(backupPagesPerStep)
				if err != nil {
					_ = b.Close()
					return fmt.Errorf("backup step: %w", err)
				}
				if done {
					break
				}
				if err := ctx.Err(); err != nil {
					_ = b.Close()
					return err
				}
			}
			return b.Finish()
		})
	})
}
