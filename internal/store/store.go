// Package store persists workspace state in an embedded Badger database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

// Option adjusts how the database is opened.
type Option func(*badger.Options)

// WithInMemory keeps all data in memory. Used by tests and ephemeral sessions.
func WithInMemory() Option {
	return func(o *badger.Options) {
		o.Dir = ""
		o.ValueDir = ""
		o.InMemory = true
	}
}

// New opens (or creates) the database at path.
func New(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // A selected workspace must survive a crash right after selection
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	for _, opt := range opts {
		opt(&bopts)
	}
	if bopts.InMemory {
		bopts.SyncWrites = false
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path, "in_memory", bopts.InMemory)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Helper methods for database operations.

// get retrieves a value by key. Returns ErrNotFound when the key is absent.
func (s *Store) get(key []byte, dest any) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

// set stores a value by key.
func (s *Store) set(key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// delete removes a key from the database.
func (s *Store) delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// exists checks if a key exists.
func (s *Store) exists(key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
