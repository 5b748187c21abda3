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


package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
)

var (
	// ErrMalformedResponse is returned when the embedding service answered
	// with a payload that does not carry the expected vectors.
	ErrMalformedResponse = errors.New("malformed embedding response")

	// ErrEmptyEmbedding is returned when the service returned no vector, or a
	// zero-length one, for an input text.
	ErrEmptyEmbedding = errors.New("empty embedding")

	// ErrIncompleteEmbedding is returned when fewer vectors than inputs come back.
	ErrIncompleteEmbedding = errors.New("not all inputs were embedded")

	// ErrUnknownProvider is returned for a provider name with no implementation.
	ErrUnknownProvider = errors.New("unknown embedding provider")
)

// ErrorKind classifies an embedding failure.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	// KindDecode means the service response could not be decoded into vectors.
	KindDecode
	// KindCall means invoking the service failed.
	KindCall
	// KindUnexpected covers every other failure.
	KindUnexpected
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDecode:
		return "decode"
	case KindCall:
		return "call"
	case KindUnexpected:
		return "unexpected"
	default:
		return "unknown"
	}
}

// EmbedError is the error type returned by embedding providers.
type EmbedError struct {
	Kind ErrorKind
	Err  error
}

// NewEmbedError wraps err with the given kind.
func NewEmbedError(kind ErrorKind, err error) *EmbedError {
	return &EmbedError{Kind: kind, Err: err}
}

func (e *EmbedError) Error() string {
	return "embedding " + e.Kind.String() + " error: " + e.Err.Error()
}

func (e *EmbedError) Unwrap() error {
	return e.Err
}

// FromCallError converts an error returned by an embedding service call.
// Malformed payloads become KindDecode; every other failure of the call is
// KindCall. Errors that already carry a kind are returned unchanged.
func FromCallError(err error) error {
	if err == nil {
		return nil
	}
	var embedErr *EmbedError
	if errors.As(err, &embedErr) {
		return err
	}
	if isDecodeError(err) {
		return NewEmbedError(KindDecode, err)
	}
	return NewEmbedError(KindCall, err)
}

// KindOf reports the kind of err.
// Errors that are not an *EmbedError are classified by inspection; anything
// that is neither a decode nor a transport failure is KindUnexpected.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var embedErr *EmbedError
	if errors.As(err, &embedErr) {
		return embedErr.Kind
	}
	if isDecodeError(err) {
		return KindDecode
	}
	if isCallError(err) {
		return KindCall
	}
	return KindUnexpected
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, ErrMalformedResponse) ||
		errors.Is(err, ErrEmptyEmbedding) ||
		errors.Is(err, ErrIncompleteEmbedding)
}

func isCallError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &urlErr) ||
		errors.As(err, &netErr)
}

// CheckVectors verifies that a provider returned exactly want non-empty vectors.
func CheckVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return NewEmbedError(KindDecode, fmt.Errorf("%w: got %d vectors for %d inputs", ErrIncompleteEmbedding, len(vectors), want))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return NewEmbedError(KindDecode, fmt.Errorf("%w: input %d", ErrEmptyEmbedding, i))
		}
	}
	return nil
}
