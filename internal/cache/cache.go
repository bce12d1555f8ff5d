// Package cache provides a Badger-backed cache with per-entry TTL.
// The planet catalog writes snapshots here on every mutation; entries
// expire on their own and are never read back on the serving path.
package cache

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache wraps a Badger database instance.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// New opens a Badger-backed cache at the given path.
func New(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("Cache database opened successfully", "path", path)
	}

	return &Cache{
		db:     db,
		logger: logger,
	}, nil
}

// Close gracefully closes the database connection.
func (c *Cache) Close() error {
	if c.logger != nil {
		c.logger.Info("Closing cache database")
	}
	return c.db.Close()
}

// Set stores a JSON-encoded value under key. A zero TTL stores the
// entry without expiry.
func (c *Cache) Set(key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Get retrieves and decodes the value stored under key into dest.
// Returns ErrNotFound for absent or expired keys.
func (c *Cache) Get(key string, dest any) error {
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
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

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Has reports whether a live entry exists under key.
func (c *Cache) Has(key string) (bool, error) {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
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
