// Package repository persists catalog records and votes in an embedded
// BadgerDB document store.
//
// Key layout:
//
//	library/<id>              -> model.Library (JSON)
//	vote/<libraryId>/<userId> -> model.Vote (JSON)
//	category/<slug>           -> model.Category (JSON)
//
// The vote key embeds the composite (user, library) identity, so "does a
// vote exist" is a point lookup and per-library tallies are a prefix scan.
package repository

import (
	"encoding/json"
	"fmt"
	"os"

	badger "github.com/dgraph-io/badger/v4"
)

// Store owns the Badger handle shared by the catalog and the vote ledger.
// Construct once with Open, pass it to the components that need it, and
// Close it on shutdown.
type Store struct {
	db *badger.DB
}

// storeConfig collects Open options.
type storeConfig struct {
	path       string
	inMemory   bool
	syncWrites bool
}

// StoreOption applies a configuration option to Open.
type StoreOption func(*storeConfig)

// WithPath sets the directory for the database files. The directory is
// created if it does not exist.
func WithPath(path string) StoreOption {
	return func(c *storeConfig) {
		if path != "" {
			c.path = path
			c.inMemory = false
		}
	}
}

// WithInMemory enables in-memory mode (no disk persistence). Used by tests.
func WithInMemory() StoreOption {
	return func(c *storeConfig) {
		c.inMemory = true
		c.path = ""
	}
}

// WithSyncWrites enables synchronous writes for durability.
func WithSyncWrites(sync bool) StoreOption {
	return func(c *storeConfig) {
		c.syncWrites = sync
	}
}

// Open creates and opens the backing Badger database.
func Open(opts ...StoreOption) (*Store, error) {
	cfg := storeConfig{inMemory: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	var options badger.Options
	if cfg.inMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.path, 0o750); err != nil {
			return nil, fmt.Errorf("create data directory %s: %w", cfg.path, err)
		}
		options = badger.DefaultOptions(cfg.path)
	}
	options = options.WithSyncWrites(cfg.syncWrites)
	// Badger's own logging is noisy at info level; the service logs around it.
	options = options.WithLogger(nil)

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key builders.

func libraryKey(id string) []byte {
	return []byte("library/" + id)
}

func voteKey(libraryID, userID string) []byte {
	return []byte("vote/" + libraryID + "/" + userID)
}

func votePrefix(libraryID string) []byte {
	return []byte("vote/" + libraryID + "/")
}

func categoryKey(slug string) []byte {
	return []byte("category/" + slug)
}

// getJSON reads and decodes a record inside a transaction. Returns
// ErrNotFound when the key is absent.
func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

// setJSON encodes and writes a record inside a transaction.
func setJSON(txn *badger.Txn, key []byte, in any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set(key, raw)
}
