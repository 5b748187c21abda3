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


package ingestion

import (
	"fmt"

	"github.com/poiesic/corpusvec/core"
)

// Batch accumulates entries as three parallel slices until it is flushed.
// Position i of each slice belongs to the same record.
type Batch struct {
	size      int
	ids       []string
	vectors   [][]float32
	metadatas []core.Metadata
}

// NewBatch creates an empty batch that is full at size entries.
func NewBatch(size int) *Batch {
	b := &Batch{size: size}
	b.Reset()
	return b
}

// Add appends one entry to all three slices.
func (b *Batch) Add(id string, vector []float32, metadata core.Metadata) {
	b.ids = append(b.ids, id)
	b.vectors = append(b.vectors, vector)
	b.metadatas = append(b.metadatas, metadata.Clone())
}

// Len returns the number of accumulated entries.
func (b *Batch) Len() int {
	return len(b.ids)
}

// Full reports whether the batch has reached its size.
func (b *Batch) Full() bool {
	return b.Len() >= b.size
}

// FirstID returns the identifier of the first entry, or "" when empty.
func (b *Batch) FirstID() string {
	if len(b.ids) == 0 {
		return ""
	}
	return b.ids[0]
}

// IDs returns the accumulated identifiers.
func (b *Batch) IDs() []string { return b.ids }

// Vectors returns the accumulated vectors.
func (b *Batch) Vectors() [][]float32 { return b.vectors }

// Metadatas returns the accumulated metadata objects.
func (b *Batch) Metadatas() []core.Metadata { return b.metadatas }

// Reset empties the batch. Slices handed out before Reset are not reused.
func (b *Batch) Reset() {
	b.ids = make([]string, 0, b.size)
	b.vectors = make([][]float32, 0, b.size)
	b.metadatas = make([]core.Metadata, 0, b.size)
}

func (b *Batch) check() error {
	if len(b.ids) != len(b.vectors) || len(b.ids) != len(b.metadatas) {
		return fmt.Errorf("%w: %d ids, %d vectors, %d metadatas",
			ErrBatchMisaligned, len(b.ids), len(b.vectors), len(b.metadatas))
	}
	return nil
}
