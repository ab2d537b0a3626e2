// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package store

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash"
	bolt "go.etcd.io/bbolt"

	"github.com/European-XFEL/Karabo-sub007/schema"
)

// Digest identifies the binary encoding of a schema.
func Digest(sc *schema.Schema) (uint64, error) {
	buf, err := sc.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(buf), nil
}

// PutSchema archives sc under its class name and returns its digest. An
// unchanged schema is not rewritten.
func (s *Store) PutSchema(sc *schema.Schema) (uint64, error) {
	name := sc.Name()
	if name == "" {
		return 0, ErrEmptyKey
	}
	buf, err := sc.MarshalBinary()
	if err != nil {
		return 0, err
	}
	digest := xxhash.Sum64(buf)
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], digest)
	err = s.update(func(tx *bolt.Tx) error {
		db := tx.Bucket(digestBucketName)
		if old := db.Get([]byte(name)); old != nil && binary.BigEndian.Uint64(old) == digest {
			return nil
		}
		val, _, err := pack(buf, s.opts.Compression)
		if err != nil {
			return err
		}
		if err := tx.Bucket(schemaBucketName).Put([]byte(name), val); err != nil {
			return err
		}
		return db.Put([]byte(name), key[:])
	})
	if err != nil {
		return 0, err
	}
	s.schemas.Remove(name)
	log.Debugf("Stored schema %s digest=%016x", name, digest)
	return digest, nil
}

// Schema returns the archived schema for a class. The result is a private
// copy.
func (s *Store) Schema(name string) (*schema.Schema, error) {
	if c, ok := s.schemas.Get(name); ok {
		return c.schema.Clone(), nil
	}
	var (
		buf    []byte
		digest uint64
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(schemaBucketName)
		if b == nil {
			return ErrNoSchema
		}
		val := b.Get([]byte(name))
		if val == nil {
			return ErrNoSchema
		}
		var err error
		if buf, err = unpack(val); err != nil {
			return err
		}
		if d := tx.Bucket(digestBucketName).Get([]byte(name)); len(d) == 8 {
			digest = binary.BigEndian.Uint64(d)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	sc := schema.New("")
	if err := sc.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("schema %s: %w", name, err)
	}
	if digest != 0 && xxhash.Sum64(buf) != digest {
		return nil, fmt.Errorf("schema %s: %w: digest mismatch", name, ErrCorrupt)
	}
	s.schemas.Add(name, &cachedSchema{digest: digest, schema: sc})
	return sc.Clone(), nil
}

// SchemaDigest returns the digest recorded for a class.
func (s *Store) SchemaDigest(name string) (uint64, error) {
	var digest uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(digestBucketName)
		if b == nil {
			return ErrNoSchema
		}
		d := b.Get([]byte(name))
		if len(d) != 8 {
			return ErrNoSchema
		}
		digest = binary.BigEndian.Uint64(d)
		return nil
	})
	return digest, err
}

// Schemas lists the archived class names in sorted order.
func (s *Store) Schemas() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(schemaBucketName)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}

func (s *Store) DeleteSchema(name string) error {
	err := s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(schemaBucketName)
		if b.Get([]byte(name)) == nil {
			return ErrNoSchema
		}
		if err := b.Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(digestBucketName).Delete([]byte(name))
	})
	s.schemas.Remove(name)
	return err
}
