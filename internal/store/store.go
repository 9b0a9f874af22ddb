// Package store provides data storage and retrieval operations using BadgerDB.
//
// Documents are stored as JSON values under type-prefixed keys. Secondary
// indexes live under the same prefix as "idx:" keys, so a single prefix scan
// covers an entity and its indexes.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/librisapp/libris-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Generic entities
	Users   *Entity[domain.User]
	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.initUsers()
	s.initAuthors()
	s.initBooks()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// Ping verifies the database is readable. Used by health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("health:ping"))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initUsers initializes the Users entity.
// The username index is unique so duplicate registrations fail at the store.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithUniqueIndex("username", func(u *domain.User) []string {
			return []string{u.Username}
		})
}

// initAuthors initializes the Authors entity.
// The unique name index arbitrates concurrent find-or-create races.
func (s *Store) initAuthors() {
	s.Authors = NewEntity[domain.Author](s, "author:").
		WithUniqueIndex("name", func(a *domain.Author) []string {
			return []string{a.Name}
		})
}

// initBooks initializes the Books entity with a non-unique author index.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, "book:").
		WithIndex("author", func(b *domain.Book) []string {
			return []string{b.AuthorID}
		})
}
