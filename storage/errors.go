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
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested entry was not found.
	ErrNotFound = errors.New("entry not found")

	// ErrLengthMismatch indicates that the ids, vectors and metadatas passed
	// to Upsert differ in length.
	ErrLengthMismatch = errors.New("ids, vectors and metadatas differ in length")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidCollection indicates an empty or malformed collection name.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)

// ErrorKind classifies a failed write.
type ErrorKind int

const (
	// KindStore means the backend reported an error.
	KindStore ErrorKind = iota + 1
	// KindUnexpected covers every other failure, including a panic inside
	// the backend.
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindStore:
		return "store"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// WriteError reports a failed Upsert of one batch.
type WriteError struct {
	Kind ErrorKind
	// FirstID is the first identifier of the batch that failed.
	FirstID string
	Size    int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s error writing batch of %d starting at %q: %v", e.Kind, e.Size, e.FirstID, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// CheckLengths verifies the positional correspondence of an Upsert call.
func CheckLengths(ids int, vectors int, metadatas int) error {
	if ids != vectors || ids != metadatas {
		return fmt.Errorf("%w: %d ids, %d vectors, %d metadatas", ErrLengthMismatch, ids, vectors, metadatas)
	}
	return nil
}
