// Copyright (c) 2024 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package main

import (
	"github.com/echa/config"

	"github.com/European-XFEL/Karabo-sub007/store"
)

// DBOpts builds archive options from the db.* and archive.* settings.
func DBOpts(readOnly bool) (store.Options, error) {
	opts := store.DefaultOptions
	opts.ReadOnly = readOnly
	opts.NoSync = config.GetBool("db.nosync")
	opts.NoGrowSync = config.GetBool("db.no_grow_sync")
	opts.NoFreelistSync = config.GetBool("db.no_free_sync")
	opts.PageSize = config.GetInt("db.page_size")
	opts.CacheSize = config.GetInt("archive.cache_size")
	c, err := store.ParseCompression(config.GetString("archive.compression"))
	if err != nil {
		return opts, err
	}
	opts.Compression = c
	dataLog.Debug("Archive config")
	dataLog.Debugf("  Readonly         %t", opts.ReadOnly)
	dataLog.Debugf("  No-Sync          %t", opts.NoSync)
	dataLog.Debugf("  No-Grow-Sync     %t", opts.NoGrowSync)
	dataLog.Debugf("  No-Freelist-Sync %t", opts.NoFreelistSync)
	dataLog.Debugf("  Pagesize         %d", opts.PageSize)
	dataLog.Debugf("  Compression      %s", opts.Compression)
	dataLog.Debugf("  Schema cache     %d", opts.CacheSize)
	return opts, nil
}

func openArchive(readOnly bool) (*store.Store, error) {
	opts, err := DBOpts(readOnly)
	if err != nil {
		return nil, err
	}
	path := config.GetString("db.path")
	log.Debugf("Using archive %s", path)
	return store.Open(path, opts)
}
