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

package storage

import (
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lexicore/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalVersion serializes a version number to bytes.
func MarshalVersion(version uint32) []byte {
	buf := make([]byte, varint.Uint32.Size(version))
	varint.Uint32.Marshal(version, buf)
	return buf
}

// UnmarshalVersion deserializes a version number from bytes.
func UnmarshalVersion(data []byte) (uint32, error) {
	version, _, err := varint.Uint32.Unmarshal(data)
	return version, err
}

// MarshalDocument serializes a LegalDocument to bytes.
func MarshalDocument(doc *core.LegalDocument) []byte {
	buf := make([]byte, core.LegalDocumentMUS.Size(*doc))
	core.LegalDocumentMUS.Marshal(*doc, buf)
	return buf
}

// UnmarshalDocument deserializes a LegalDocument from bytes.
func UnmarshalDocument(data []byte) (*core.LegalDocument, error) {
	doc, _, err := core.LegalDocumentMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// MarshalChunk serializes a Chunk to bytes.
func MarshalChunk(chunk *core.Chunk) []byte {
	buf := make([]byte, core.ChunkMUS.Size(*chunk))
	core.ChunkMUS.Marshal(*chunk, buf)
	return buf
}

// UnmarshalChunk deserializes a Chunk from bytes.
func UnmarshalChunk(data []byte) (*core.Chunk, error) {
	chunk, _, err := core.ChunkMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// MarshalEdge serializes a CitationEdge to bytes.
func MarshalEdge(edge *core.CitationEdge) []byte {
	buf := make([]byte, core.CitationEdgeMUS.Size(*edge))
	core.CitationEdgeMUS.Marshal(*edge, buf)
	return buf
}

// UnmarshalEdge deserializes a CitationEdge from bytes.
func UnmarshalEdge(data []byte) (*core.CitationEdge, error) {
	edge, _, err := core.CitationEdgeMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &edge, nil
}
