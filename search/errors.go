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

package search

import "errors"

var (
	// ErrDocumentStoreRequired is returned when a document store is not provided.
	ErrDocumentStoreRequired = errors.New("document store required")

	// ErrKeywordIndexRequired is returned when a keyword index is not provided.
	ErrKeywordIndexRequired = errors.New("keyword index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidWeights is returned when configured ranking weights are not
	// all non-negative with at least one positive.
	ErrInvalidWeights = errors.New("invalid ranking weights")

	// ErrInvalidLambda is returned when the diversity trade-off is outside [0,1].
	ErrInvalidLambda = errors.New("diversity lambda must be in [0,1]")
)
