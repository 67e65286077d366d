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

// Package ai provides abstractions for the embedding service used by
// Lexicore.
//
// The indexing pipeline and the query engine both depend on the Embedder
// interface rather than a concrete client, so the embedding backend can be
// swapped (or mocked in tests) without touching business logic.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewEmbedder) return the ai.Embedder INTERFACE
// to enforce abstraction. The test utility constructor (mock.NewMockEmbedder)
// returns the CONCRETE type so tests can inject behavior and assert on call
// counts.
//
// # Usage Example
//
//	cfg := ai.DefaultConfig()
//	embedder, err := openai.NewEmbedder(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vec, err := embedder.EmbedText(ctx, "residence homestead exemption")
package ai
