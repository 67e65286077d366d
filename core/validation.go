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

import (
	"fmt"
	"strings"
	"time"
)

// ValidateRawDocument validates ingestion input according to domain rules.
//
// Validation rules:
//   - Id must not be empty and must not contain NUL bytes
//   - Text must not be empty
//   - Type must be one of the closed DocumentType set
//   - EffectiveDate must not be in the future
//
// Jurisdiction and SourceCitation are optional.
func ValidateRawDocument(doc *RawDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}

	if doc.Id == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyDocumentID)
	}

	// NUL is the component separator in composite storage keys
	if strings.ContainsRune(string(doc.Id), 0) {
		return fmt.Errorf("%w: document id contains NUL byte", ErrValidation)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyText)
	}

	if err := ValidateDocumentType(doc.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if !doc.EffectiveDate.IsZero() && doc.EffectiveDate.After(time.Now()) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidEffectiveDate)
	}

	return nil
}

// ValidateQuery validates a search request.
//
// Validation rules:
//   - Text must not be empty
//   - Mode must be one of the closed SearchMode set
//   - Limit must be positive
//   - Scope entries must be valid document types
func ValidateQuery(q *Query) error {
	if q == nil {
		return fmt.Errorf("%w: query is nil", ErrValidation)
	}

	if q.Text == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyText)
	}

	switch q.Mode {
	case ModeKeyword, ModeSemantic, ModeHybrid, ModeLegalReasoning:
	default:
		return fmt.Errorf("%w: invalid search mode %d", ErrValidation, q.Mode)
	}

	if q.Limit <= 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidLimit)
	}

	for _, t := range q.Scope {
		if err := ValidateDocumentType(t); err != nil {
			return fmt.Errorf("%w: scope: %w", ErrValidation, err)
		}
	}

	return nil
}

// ValidateDocumentType validates that a DocumentType has a valid value.
func ValidateDocumentType(t DocumentType) error {
	switch t {
	case DocumentTypeStatute, DocumentTypeRegulation, DocumentTypeProcedure,
		DocumentTypeForm, DocumentTypeFAQ:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidDocumentType, t)
	}
}
