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


package core

import (
	"encoding/binary"
	"maps"

	"github.com/go-crypt/x/blake2b"
)

// ID is a numeric identifier derived from content.
// Backends that cannot key points by arbitrary strings use it in place of
// the record identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is a single row read from the source store.
type Record struct {
	ID   string // Identifier, presumed unique within the source table
	Text string // Text to embed
}

// Metadata is attached to every stored vector.
// It holds exactly two entries: the record identifier and the original text,
// keyed by the names configured for the run (e.g. "verse" and "text").
type Metadata map[string]string

// NewMetadata builds the metadata object for a record.
func NewMetadata(idKey, textKey string, record Record) Metadata {
	return Metadata{
		idKey:   record.ID,
		textKey: record.Text,
	}
}

// Clone returns a copy of the metadata that shares no state with m.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

// Entry is one item of a vector collection.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}
