// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/corpusvec/core"
	"github.com/poiesic/corpusvec/storage"
)

// Collection implements storage.VectorIndex on top of a Backend.
// Entries are stored one key per identifier, so a rerun over the same source
// overwrites instead of duplicating.
type Collection struct {
	backend     *Backend
	name        string
	ownsBackend bool
	logger      *slog.Logger
}

var _ storage.VectorIndex = (*Collection)(nil)

// NewCollection creates a Collection named name on an open backend.
// Closing the collection leaves the backend open.
func NewCollection(backend *Backend, name string) (*Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	return &Collection{
		backend: backend,
		name:    name,
		logger:  backend.logger.With("collection", name),
	}, nil
}

// OpenCollection opens (creating if needed) the database at path and returns
// the named collection in it. Closing the collection closes the database.
//
// Returns storage.VectorIndex interface to enforce abstraction.
func OpenCollection(path, name string) (storage.VectorIndex, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	collection, err := NewCollection(backend, name)
	if err != nil {
		backend.Close()
		return nil, err
	}
	collection.ownsBackend = true
	return collection, nil
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Upsert writes all entries of the batch through a badger WriteBatch, which
// commits in as many transactions as the entries need.
func (c *Collection) Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []core.Metadata) error {
	if err := storage.CheckLengths(len(ids), len(vectors), len(metadatas)); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := c.backend.WithWriteBatch(func(wb *badger.WriteBatch) error {
		for i, id := range ids {
			entry := &core.Entry{ID: id, Vector: vectors[i], Metadata: metadatas[i]}
			if err := wb.Set(makeEntryKey(c.name, id), storage.MarshalEntry(entry)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Debug("upserted batch", "size", len(ids), "first", ids[0])
	return nil
}

// Count returns the number of entries in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	count := 0
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeCollectionPrefix(c.name)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			count++
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Get retrieves a single entry by identifier.
func (c *Collection) Get(ctx context.Context, id string) (*core.Entry, error) {
	var entry *core.Entry
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEntryKey(c.name, id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = storage.UnmarshalEntry(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Close closes the underlying database if the collection opened it.
func (c *Collection) Close() error {
	if !c.ownsBackend || c.backend.IsClosed() {
		return nil
	}
	return c.backend.Close()
}
