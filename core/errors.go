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


package core

import "errors"

// Error taxonomy. Callers classify failures with errors.Is against these
// sentinels; packages wrap them with %w and add detail.
var (
	// ErrValidation indicates a malformed document or query.
	// Not retryable; surfaced to the caller.
	ErrValidation = errors.New("validation error")

	// ErrTransientDependency indicates an external dependency failure
	// (embedding service timeout or 5xx). Retried with backoff up to a cap,
	// then degraded per the indexing partial-failure policy.
	ErrTransientDependency = errors.New("transient dependency error")

	// ErrConflict indicates a concurrent ingestion of the same document
	// identity. Surfaced to the caller, who retries.
	ErrConflict = errors.New("conflicting ingestion in progress")

	// ErrNotFound indicates an unknown document or chunk identifier.
	ErrNotFound = errors.New("not found")

	// ErrBackpressure indicates the ingestion work queue is full.
	// Retryable after a delay.
	ErrBackpressure = errors.New("ingestion queue full")
)

// Validation detail errors, always wrapped under ErrValidation.
var (
	// ErrEmptyDocumentID indicates a missing document identity.
	ErrEmptyDocumentID = errors.New("document id cannot be empty")

	// ErrEmptyText indicates an empty document body or query text.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidDocumentType indicates a DocumentType outside the closed set.
	ErrInvalidDocumentType = errors.New("invalid document type")

	// ErrInvalidEffectiveDate indicates an effective date in the future.
	ErrInvalidEffectiveDate = errors.New("effective date cannot be in the future")

	// ErrInvalidLimit indicates a non-positive query limit.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrNoValidChunks indicates a document produced zero chunks above the
	// quality threshold; the whole document is rejected without partial commit.
	ErrNoValidChunks = errors.New("document produced no valid chunks")
)
