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


// Package source defines how corpusvec reads the records it embeds.
package source

import (
	"context"
	"errors"

	"github.com/poiesic/corpusvec/core"
)

// ErrSourceNotFound is returned when the source store does not exist.
var ErrSourceNotFound = errors.New("source store not found")

// Reader yields every record of one source table.
type Reader interface {
	// ReadAll returns the complete result set in store order.
	ReadAll(ctx context.Context) ([]core.Record, error)

	// Close releases the connection to the store.
	Close() error
}
