package ingestion

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/xxh3"
	bolt "go.etcd.io/bbolt"

	"github.com/codegraphhq/codegraph/internal/treesitter"
)

var cacheBucket = []byte("file_records")

// Cache stores extracted file records keyed by repository-relative path,
// guarded by a content hash, so unchanged files skip re-parsing between
// runs. The extraction options are mixed into the hash: changing the
// internal prefixes or doc setting invalidates prior entries.
type Cache struct {
	db     *bolt.DB
	salt   []byte
	logger *slog.Logger
}

type cachedRecord struct {
	Hash   uint64                 `json:"hash"`
	Record *treesitter.FileRecord `json:"record"`
}

// OpenCache opens (or creates) a cache file at path.
func OpenCache(path string, opts treesitter.ExtractOptions) (*Cache, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{
		db:     db,
		salt:   []byte(fmt.Sprintf("%v|%v", opts.InternalPrefixes, opts.IncludeDocs)),
		logger: slog.Default().With("component", "cache"),
	}, nil
}

// Close releases the cache file
func (c *Cache) Close() error {
	return c.db.Close()
}

// Lookup returns the cached record for path when the stored hash matches
// the current content.
func (c *Cache) Lookup(path string, code []byte) (*treesitter.FileRecord, bool) {
	hash := c.hash(code)

	var record *treesitter.FileRecord
	c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(cacheBucket).Get([]byte(path))
		if raw == nil {
			return nil
		}
		var cached cachedRecord
		if err := json.Unmarshal(raw, &cached); err != nil {
			// Corrupt entry, treat as a miss and let Store overwrite it.
			return nil
		}
		if cached.Hash == hash {
			record = cached.Record
		}
		return nil
	})
	return record, record != nil
}

// Store saves the record under the content hash of the code it came from.
// Failures are logged, not returned: the cache is an optimization.
func (c *Cache) Store(path string, code []byte, record *treesitter.FileRecord) {
	raw, err := json.Marshal(cachedRecord{Hash: c.hash(code), Record: record})
	if err != nil {
		c.logger.Warn("cache encode failed", "path", path, "error", err)
		return
	}
	if err := c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put([]byte(path), raw)
	}); err != nil {
		c.logger.Warn("cache store failed", "path", path, "error", err)
	}
}

func (c *Cache) hash(code []byte) uint64 {
	h := xxh3.New()
	h.Write(c.salt)
	h.Write(code)
	return h.Sum64()
}
