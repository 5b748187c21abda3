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


// Package storage provides the vector index abstraction for corpusvec.
//
// This package defines the VectorIndex interface that decouples the ingestion
// pipeline from the backend holding the collection. Backends live in
// subpackages:
//
//   - storage/badger: local, disk-backed collection (default)
//   - storage/qdrant: remote Qdrant collection over gRPC
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.VectorIndex interface:
//
//	index, err := badger.OpenCollection(path, "bible_verses")
//
// Internal constructors may return concrete types since they're only used
// within the implementation package.
//
// # Failure Kinds
//
// A failed batch write is reported as a *WriteError whose Kind is KindStore
// when the backend returned an error and KindUnexpected otherwise. The
// pipeline logs the failure and continues; the batch is lost.
//
// # Serialization
//
// Backends that store raw bytes encode entries with MarshalEntry and decode
// them with UnmarshalEntry, built on mus-go primitives.
package storage
