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
	"fmt"
	"strings"

	"github.com/poiesic/corpusvec/storage"
)

const (
	collectionPrefix = "col"
)

// makeCollectionPrefix generates the key prefix shared by every entry of a collection.
// Format: col:collection:
func makeCollectionPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", collectionPrefix, collection))
}

// makeEntryKey generates a key for an entry by identifier.
// Format: col:collection:id
func makeEntryKey(collection, id string) []byte {
	prefix := makeCollectionPrefix(collection)
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}

// validateCollectionName rejects names that would make prefixes ambiguous.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", storage.ErrInvalidCollection)
	}
	if strings.Contains(name, ":") {
		return fmt.Errorf("%w: %q contains ':'", storage.ErrInvalidCollection, name)
	}
	return nil
}
