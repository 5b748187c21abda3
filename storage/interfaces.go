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


package storage

import (
	"context"

	"github.com/poiesic/corpusvec/core"
)

// VectorIndex is a named, persistent collection of vectors keyed by identifier.
type VectorIndex interface {
	// Upsert inserts or replaces one entry per identifier.
	// The three slices correspond positionally and must have equal length;
	// ErrLengthMismatch is returned otherwise. Empty input is a no-op.
	// Writing an identifier that already exists replaces its vector and
	// metadata, so repeated upserts of the same data are idempotent.
	Upsert(ctx context.Context, ids []string, vectors [][]float32, metadatas []core.Metadata) error

	// Count returns the number of entries in the collection.
	Count(ctx context.Context) (int, error)

	// Get retrieves a single entry by identifier.
	// Returns ErrNotFound if the entry doesn't exist.
	Get(ctx context.Context, id string) (*core.Entry, error)

	// Close releases the index and its connections.
	Close() error
}
