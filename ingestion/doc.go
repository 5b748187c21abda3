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


// Package ingestion provides the batch loading pipeline.
//
// The Pipeline type reads every record from a source.Reader, embeds each one
// with an ai.Embedder and upserts the results into a storage.VectorIndex:
//   - Records are processed one at a time, in source order
//   - Entries accumulate in a Batch and are flushed as soon as it is full
//   - A final, non-empty partial batch is flushed once input is exhausted
//
// Failures are best effort. A failed embedding skips its record and a failed
// write loses its batch; both are logged and counted in Stats but never stop
// the run.
package ingestion
