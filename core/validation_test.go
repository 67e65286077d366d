package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateRawDocument(t *testing.T) {
	pastDate := time.Now().Add(-24 * time.Hour)
	futureDate := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name    string
		doc     *RawDocument
		wantErr error
	}{
		{
			name: "valid statute",
			doc: &RawDocument{
				Id:            "tx-tax-11.13",
				Jurisdiction:  "TX",
				Type:          DocumentTypeStatute,
				EffectiveDate: pastDate,
				Text:          "Sec. 11.13. RESIDENCE HOMESTEAD.",
			},
			wantErr: nil,
		},
		{
			name: "valid without jurisdiction",
			doc: &RawDocument{
				Id:   "faq-42",
				Type: DocumentTypeFAQ,
				Text: "How do I apply?",
			},
			wantErr: nil,
		},
		{
			name: "valid with zero effective date",
			doc: &RawDocument{
				Id:   "form-50-114",
				Type: DocumentTypeForm,
				Text: "Application for Residence Homestead Exemption",
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrValidation,
		},
		{
			name: "empty id",
			doc: &RawDocument{
				Type: DocumentTypeStatute,
				Text: "some text",
			},
			wantErr: ErrEmptyDocumentID,
		},
		{
			name: "empty text",
			doc: &RawDocument{
				Id:   "tx-tax-11.13",
				Type: DocumentTypeStatute,
			},
			wantErr: ErrEmptyText,
		},
		{
			name: "invalid type",
			doc: &RawDocument{
				Id:   "tx-tax-11.13",
				Type: DocumentType(99),
				Text: "some text",
			},
			wantErr: ErrInvalidDocumentType,
		},
		{
			name: "future effective date",
			doc: &RawDocument{
				Id:            "tx-tax-11.13",
				Type:          DocumentTypeStatute,
				EffectiveDate: futureDate,
				Text:          "some text",
			},
			wantErr: ErrInvalidEffectiveDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRawDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRawDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRawDocument() error = %v, want %v", err, tt.wantErr)
			}
			// Every validation failure must carry the taxonomy sentinel.
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateRawDocument() error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidateQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   *Query
		wantErr error
	}{
		{
			name:    "valid keyword query",
			query:   &Query{Text: "homestead exemption", Mode: ModeKeyword, Limit: 10},
			wantErr: nil,
		},
		{
			name: "valid scoped query",
			query: &Query{
				Text:         "filing deadline",
				Mode:         ModeHybrid,
				Scope:        []DocumentType{DocumentTypeStatute},
				Jurisdiction: "TX",
				Limit:        5,
			},
			wantErr: nil,
		},
		{
			name:    "nil query",
			query:   nil,
			wantErr: ErrValidation,
		},
		{
			name:    "empty text",
			query:   &Query{Mode: ModeKeyword, Limit: 10},
			wantErr: ErrEmptyText,
		},
		{
			name:    "invalid mode",
			query:   &Query{Text: "deadline", Mode: SearchMode(9), Limit: 10},
			wantErr: ErrValidation,
		},
		{
			name:    "zero limit",
			query:   &Query{Text: "deadline", Mode: ModeKeyword},
			wantErr: ErrInvalidLimit,
		},
		{
			name: "invalid scope entry",
			query: &Query{
				Text:  "deadline",
				Mode:  ModeKeyword,
				Scope: []DocumentType{DocumentType(0)},
				Limit: 10,
			},
			wantErr: ErrInvalidDocumentType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuery(tt.query)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateQuery() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateQuery() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateQuery() error %v does not wrap ErrValidation", err)
			}
		})
	}
}

func TestValidateDocumentType(t *testing.T) {
	for _, valid := range []DocumentType{
		DocumentTypeStatute, DocumentTypeRegulation, DocumentTypeProcedure,
		DocumentTypeForm, DocumentTypeFAQ,
	} {
		if err := ValidateDocumentType(valid); err != nil {
			t.Errorf("ValidateDocumentType(%v) unexpected error: %v", valid, err)
		}
	}
	if err := ValidateDocumentType(DocumentType(0)); !errors.Is(err, ErrInvalidDocumentType) {
		t.Errorf("ValidateDocumentType(0) error = %v, want ErrInvalidDocumentType", err)
	}
}
