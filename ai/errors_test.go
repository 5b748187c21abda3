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
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "none", KindNone.String())
	assert.Equal(t, "decode", KindDecode.String())
	assert.Equal(t, "call", KindCall.String())
	assert.Equal(t, "unexpected", KindUnexpected.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}

func TestFromCallError(t *testing.T) {
	var syntaxErr error
	{
		var v any
		syntaxErr = json.Unmarshal([]byte("{not json"), &v)
		require.Error(t, syntaxErr)
	}

	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"json syntax", fmt.Errorf("decode response: %w", syntaxErr), KindDecode},
		{"json type", &json.UnmarshalTypeError{Value: "string"}, KindDecode},
		{"truncated body", io.ErrUnexpectedEOF, KindDecode},
		{"malformed", fmt.Errorf("%w: no response", ErrMalformedResponse), KindDecode},
		{"empty embedding", ErrEmptyEmbedding, KindDecode},
		{"incomplete", ErrIncompleteEmbedding, KindDecode},
		{"status code", errors.New("API returned unexpected status code: 500"), KindCall},
		{"transport", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, KindCall},
		{"cancelled", context.Canceled, KindCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromCallError(tt.err)
			require.Error(t, err)

			var embedErr *EmbedError
			require.ErrorAs(t, err, &embedErr)
			assert.Equal(t, tt.want, embedErr.Kind)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, FromCallError(nil))
	})

	t.Run("existing kind preserved", func(t *testing.T) {
		orig := NewEmbedError(KindUnexpected, errors.New("boom"))
		wrapped := fmt.Errorf("wrapped: %w", orig)
		assert.Equal(t, wrapped, FromCallError(wrapped))
		assert.Equal(t, KindUnexpected, KindOf(FromCallError(wrapped)))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindDecode, KindOf(NewEmbedError(KindDecode, errors.New("x"))))
	assert.Equal(t, KindCall, KindOf(fmt.Errorf("wrap: %w", NewEmbedError(KindCall, errors.New("x")))))
	assert.Equal(t, KindDecode, KindOf(ErrEmptyEmbedding))
	assert.Equal(t, KindCall, KindOf(context.DeadlineExceeded))
	assert.Equal(t, KindUnexpected, KindOf(errors.New("mystery")))
}

func TestEmbedError_Error(t *testing.T) {
	err := NewEmbedError(KindCall, errors.New("connection refused"))
	assert.Equal(t, "embedding call error: connection refused", err.Error())
}

func TestCheckVectors(t *testing.T) {
	require.NoError(t, CheckVectors([][]float32{{0, 0, 0}, {1}}, 2))

	err := CheckVectors([][]float32{{1}}, 2)
	assert.ErrorIs(t, err, ErrIncompleteEmbedding)
	assert.Equal(t, KindDecode, KindOf(err))

	err = CheckVectors([][]float32{{1}, {}}, 2)
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
	assert.Equal(t, KindDecode, KindOf(err))
}
