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
	"fmt"
	"maps"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/corpusvec/core"
)

// Entry wire format, in order:
//
//	id         string
//	vector     length, then raw float32 components
//	metadata   length, then key/value string pairs sorted by key
//
// Metadata keys are sorted so equal entries always encode to equal bytes.

// EntrySize returns the encoded size of entry.
func EntrySize(entry *core.Entry) int {
	size := ord.String.Size(entry.ID)
	size += varint.PositiveInt.Size(len(entry.Vector))
	for _, v := range entry.Vector {
		size += raw.Float32.Size(v)
	}
	size += varint.PositiveInt.Size(len(entry.Metadata))
	for k, v := range entry.Metadata {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

// MarshalEntry encodes entry.
func MarshalEntry(entry *core.Entry) []byte {
	buf := make([]byte, EntrySize(entry))
	n := ord.String.Marshal(entry.ID, buf)
	n += varint.PositiveInt.Marshal(len(entry.Vector), buf[n:])
	for _, v := range entry.Vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	n += varint.PositiveInt.Marshal(len(entry.Metadata), buf[n:])
	keys := slices.Sorted(maps.Keys(entry.Metadata))
	for _, k := range keys {
		n += ord.String.Marshal(k, buf[n:])
		n += ord.String.Marshal(entry.Metadata[k], buf[n:])
	}
	return buf[:n]
}

// UnmarshalEntry decodes an entry written by MarshalEntry.
func UnmarshalEntry(data []byte) (*core.Entry, error) {
	var (
		entry core.Entry
		n     int
	)

	id, m, err := ord.String.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %w", ErrTruncatedData, err)
	}
	entry.ID = id
	n += m

	length, m, err := varint.PositiveInt.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrTruncatedData, err)
	}
	n += m
	if length < 0 || length > (len(data)-n)/4 {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, length)
	}
	entry.Vector = make([]float32, length)
	for i := range entry.Vector {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector component %d: %w", ErrTruncatedData, i, err)
		}
		entry.Vector[i] = v
		n += m
	}

	count, m, err := varint.PositiveInt.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: metadata length: %w", ErrTruncatedData, err)
	}
	n += m
	if count < 0 || count > len(data)-n {
		return nil, fmt.Errorf("%w: metadata length %d", ErrTruncatedData, count)
	}
	entry.Metadata = make(core.Metadata, count)
	for range count {
		k, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata key: %w", ErrTruncatedData, err)
		}
		n += m
		v, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: metadata value: %w", ErrTruncatedData, err)
		}
		n += m
		entry.Metadata[k] = v
	}

	return &entry, nil
}
