// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

// Package store archives configurations and schemas in a bolt database.
// Values are kept in the binary Hash encoding, optionally compressed.
package store

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	bolt "go.etcd.io/bbolt"

	"github.com/European-XFEL/Karabo-sub007/schema"
)

var (
	ErrNoConfig = errors.New("store: configuration not found")
	ErrNoSchema = errors.New("store: schema not found")
	ErrCorrupt  = errors.New("store: corrupt record")
	ErrReadOnly = errors.New("store: database is read-only")
	ErrEmptyKey = errors.New("store: empty key")
)

var (
	// configBucketName houses packed configuration Hashes by key.
	configBucketName = []byte("configs")

	// infoBucketName houses per-configuration metadata by key.
	infoBucketName = []byte("infos")

	// schemaBucketName houses packed schemas by class name.
	schemaBucketName = []byte("schemas")

	// digestBucketName maps class names to the digest of their encoded schema.
	digestBucketName = []byte("digests")

	buckets = [][]byte{configBucketName, infoBucketName, schemaBucketName, digestBucketName}
)

type Options struct {
	ReadOnly bool

	// skip fsync (DANGEROUS on crashes, but better performance for bulk load)
	NoSync bool

	// skip fsync+alloc on grow; don't use with ext3/4, good in Docker + XFS
	NoGrowSync bool

	// don't fsync freelist
	NoFreelistSync bool

	// PageSize overrides the default OS page size.
	PageSize int

	// Timeout for opening a locked database file.
	Timeout time.Duration

	Compression Compression

	// CacheSize is the number of decoded schemas kept in memory.
	CacheSize int
}

var DefaultOptions = Options{
	Timeout:     time.Second,
	Compression: CompressionLZ4,
	CacheSize:   128,
}

func (o Options) boltOptions() *bolt.Options {
	return &bolt.Options{
		Timeout:        o.Timeout,
		FreelistType:   bolt.FreelistMapType,
		ReadOnly:       o.ReadOnly,
		NoSync:         o.NoSync,
		NoGrowSync:     o.NoGrowSync,
		NoFreelistSync: o.NoFreelistSync,
		PageSize:       o.PageSize,
	}
}

// Store is safe for concurrent use.
type Store struct {
	db      *bolt.DB
	opts    Options
	schemas *lru.TwoQueueCache[string, *cachedSchema]
}

type cachedSchema struct {
	digest uint64
	schema *schema.Schema
}

// Open opens or creates the archive at path.
func Open(path string, opts Options) (*Store, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultOptions.CacheSize
	}
	cache, err := lru.New2Q[string, *cachedSchema](opts.CacheSize)
	if err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0600, opts.boltOptions())
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	if !opts.ReadOnly {
		err = db.Update(func(tx *bolt.Tx) error {
			for _, name := range buckets {
				if _, err := tx.CreateBucketIfNotExists(name); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("store: creating buckets: %w", err)
		}
	}
	log.Debugf("Opened archive %s (compression=%s, cache=%d, readonly=%t)",
		path, opts.Compression, opts.CacheSize, opts.ReadOnly)
	return &Store{
		db:      db,
		opts:    opts,
		schemas: cache,
	}, nil
}

func (s *Store) Close() error {
	s.schemas.Purge()
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.db.Path()
}

func (s *Store) Options() Options {
	return s.opts
}

// Stats reports database level counters.
type Stats struct {
	Configs     int   `json:"configs"`
	Schemas     int   `json:"schemas"`
	CachedItems int   `json:"cached_schemas"`
	FileSize    int64 `json:"file_size"`
	TxCount     int   `json:"tx_count"`
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.View(func(tx *bolt.Tx) error {
		if b := tx.Bucket(configBucketName); b != nil {
			st.Configs = b.Stats().KeyN
		}
		if b := tx.Bucket(schemaBucketName); b != nil {
			st.Schemas = b.Stats().KeyN
		}
		st.FileSize = tx.Size()
		return nil
	})
	st.CachedItems = s.schemas.Len()
	st.TxCount = s.db.Stats().TxN
	return st, err
}

func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	if s.opts.ReadOnly {
		return ErrReadOnly
	}
	return s.db.Update(fn)
}
