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


// Package ai provides abstractions for the embedding services used by corpusvec.
//
// This package defines the Embedder interface and the error taxonomy shared by
// all embedding providers. Business logic depends on these abstractions rather
// than on concrete clients.
//
// # Implementation Packages
//
//   - ai/ollama: native Ollama embedding API (default provider)
//   - ai/openai: any OpenAI-compatible embeddings endpoint
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (ollama.NewEmbedder, openai.NewEmbedder) return the
// ai.Embedder INTERFACE so callers cannot couple to a concrete client.
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types so
// tests can inject behavior and assert on call counts.
//
// # Failure Kinds
//
// Every failure returned by a provider is an *EmbedError carrying one of a
// closed set of kinds:
//
//   - KindDecode: the service answered but the payload was malformed
//   - KindCall: the service invocation itself failed
//   - KindUnexpected: anything else
//
// Callers use KindOf to recover the kind of any error, including errors
// returned by embedders that do not wrap their failures.
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithModel("mxbai-embed-large"))
//	embedder, err := NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vector, err := embedder.EmbedText(ctx, "In the beginning")
//	if err != nil {
//	    log.Printf("embedding failed (%s): %v", ai.KindOf(err), err)
//	}
package ai
