// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash"
	bolt "go.etcd.io/bbolt"

	"github.com/European-XFEL/Karabo-sub007/hash"
	"github.com/European-XFEL/Karabo-sub007/schema"
)

// Info describes an archived configuration.
type Info struct {
	Key         string      `json:"key"`
	Schema      string      `json:"schema,omitempty"`
	Digest      uint64      `json:"digest"`
	Size        int         `json:"size"`
	Stored      int         `json:"stored"`
	Compression Compression `json:"compression"`
	Updated     time.Time   `json:"updated"`
}

// PutConfig archives h under key without validation.
func (s *Store) PutConfig(key string, h *hash.Hash) (*Info, error) {
	return s.putConfig(key, "", h)
}

// PutValidated validates h against the archived schema of class and
// archives the canonical result.
func (s *Store) PutValidated(key, class string, h *hash.Hash, rules schema.Rules) (*hash.Hash, *Info, error) {
	sc, err := s.Schema(class)
	if err != nil {
		return nil, nil, err
	}
	out, err := schema.NewValidator(rules).Validate(sc, h)
	if err != nil {
		return nil, nil, err
	}
	info, err := s.putConfig(key, class, out)
	if err != nil {
		return nil, nil, err
	}
	return out, info, nil
}

func (s *Store) putConfig(key, class string, h *hash.Hash) (*Info, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	buf, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}
	val, c, err := pack(buf, s.opts.Compression)
	if err != nil {
		return nil, err
	}
	info := &Info{
		Key:         key,
		Schema:      class,
		Digest:      xxhash.Sum64(buf),
		Size:        len(buf),
		Stored:      len(val),
		Compression: c,
		Updated:     time.Now().UTC(),
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	err = s.update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(configBucketName).Put([]byte(key), val); err != nil {
			return err
		}
		return tx.Bucket(infoBucketName).Put([]byte(key), meta)
	})
	if err != nil {
		return nil, err
	}
	log.Tracef("Stored config %s size=%d stored=%d (%s)", key, info.Size, info.Stored, c)
	return info, nil
}

// Config loads the configuration archived under key.
func (s *Store) Config(key string) (*hash.Hash, error) {
	var buf []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(configBucketName)
		if b == nil {
			return ErrNoConfig
		}
		val := b.Get([]byte(key))
		if val == nil {
			return ErrNoConfig
		}
		var err error
		buf, err = unpack(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", key, err)
	}
	h := hash.New()
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("config %s: %w", key, err)
	}
	return h, nil
}

// Stat returns the metadata of a configuration.
func (s *Store) Stat(key string) (*Info, error) {
	info := &Info{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(infoBucketName)
		if b == nil {
			return ErrNoConfig
		}
		buf := b.Get([]byte(key))
		if buf == nil {
			return ErrNoConfig
		}
		return json.Unmarshal(buf, info)
	})
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", key, err)
	}
	return info, nil
}

// List returns the metadata of all configurations whose key starts with
// prefix, in key order.
func (s *Store) List(prefix string) ([]*Info, error) {
	var list []*Info
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(infoBucketName)
		if b == nil {
			return nil
		}
		p := []byte(prefix)
		c := b.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			info := &Info{}
			if err := json.Unmarshal(v, info); err != nil {
				return fmt.Errorf("config %s: %w: %v", k, ErrCorrupt, err)
			}
			list = append(list, info)
		}
		return nil
	})
	return list, err
}

func (s *Store) DeleteConfig(key string) error {
	return s.update(func(tx *bolt.Tx) error {
		b := tx.Bucket(configBucketName)
		if b.Get([]byte(key)) == nil {
			return ErrNoConfig
		}
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		return tx.Bucket(infoBucketName).Delete([]byte(key))
	})
}
