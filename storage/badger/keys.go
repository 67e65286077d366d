package badger

import (
	"encoding/binary"

	"github.com/poiesic/lexicore/core"
)

// Key prefixes for different data types
const (
	docPrefix       = "lexdoc"
	docLatestPrefix = "lexdocl"
	chunkPrefix     = "lexchu"
	edgePrefix      = "lexedg"
	edgeInPrefix    = "lexedgi"
	edgePendPrefix  = "lexedgp"
)

// sep separates variable-length string components inside composite keys.
// Document IDs are validated to never contain it.
const sep = byte(0x00)

// makeDocKey generates a key for a document version.
// Format: prefix:id\x00version
func makeDocKey(id core.DocumentID, version uint32) []byte {
	prefix := docPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(id)+1+4)
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	buf = append(buf, sep)
	// BigEndian so versions of one document sort in order
	buf = binary.BigEndian.AppendUint32(buf, version)
	return buf
}

// makeDocVersionPrefix generates the common prefix of all versions of a document.
func makeDocVersionPrefix(id core.DocumentID) []byte {
	prefix := docPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(id)+1)
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	buf = append(buf, sep)
	return buf
}

// makeLatestKey generates the latest-version pointer key for a document.
func makeLatestKey(id core.DocumentID) []byte {
	prefix := docLatestPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}

// makeChunkKey generates a key for a chunk of a document version.
// Format: prefix:id\x00version:position
func makeChunkKey(id core.DocumentID, version uint32, position int) []byte {
	buf := makeChunkVersionPrefix(id, version)
	// BigEndian so chunks of one version sort in position order
	return binary.BigEndian.AppendUint32(buf, uint32(position))
}

// makeChunkVersionPrefix generates the common prefix of all chunks of a
// document version.
func makeChunkVersionPrefix(id core.DocumentID, version uint32) []byte {
	prefix := chunkPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(id)+1+8)
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	buf = append(buf, sep)
	buf = binary.BigEndian.AppendUint32(buf, version)
	return buf
}

// makeEdgeKey generates the primary key of a citation edge.
// Format: prefix:source\x00target\x00relation
func makeEdgeKey(source, target core.DocumentID, relation core.RelationKind) []byte {
	prefix := edgePrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(source)+1+len(target)+2)
	buf = append(buf, prefix...)
	buf = append(buf, source...)
	buf = append(buf, sep)
	buf = append(buf, target...)
	buf = append(buf, sep)
	buf = append(buf, byte(relation))
	return buf
}

// makeEdgeSourcePrefix generates the common prefix of all edges from a source.
func makeEdgeSourcePrefix(source core.DocumentID) []byte {
	prefix := edgePrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(source)+1)
	buf = append(buf, prefix...)
	buf = append(buf, source...)
	buf = append(buf, sep)
	return buf
}

// makeEdgeInKey generates the incoming-index key of a citation edge.
// Format: prefix:target\x00source\x00relation; value is the primary edge key.
func makeEdgeInKey(target, source core.DocumentID, relation core.RelationKind) []byte {
	prefix := edgeInPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(target)+1+len(source)+2)
	buf = append(buf, prefix...)
	buf = append(buf, target...)
	buf = append(buf, sep)
	buf = append(buf, source...)
	buf = append(buf, sep)
	buf = append(buf, byte(relation))
	return buf
}

// makeEdgeInPrefix generates the common prefix of all incoming-index entries
// for a target.
func makeEdgeInPrefix(target core.DocumentID) []byte {
	prefix := edgeInPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(target)+1)
	buf = append(buf, prefix...)
	buf = append(buf, target...)
	buf = append(buf, sep)
	return buf
}

// makeEdgePendKey generates the pending-index key of an unresolved edge.
// Format: prefix:target\x00source\x00relation; value is the primary edge key.
// Keyed by target so resolution after a commit scans only that document's
// pending edges.
func makeEdgePendKey(target, source core.DocumentID, relation core.RelationKind) []byte {
	prefix := edgePendPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(target)+1+len(source)+2)
	buf = append(buf, prefix...)
	buf = append(buf, target...)
	buf = append(buf, sep)
	buf = append(buf, source...)
	buf = append(buf, sep)
	buf = append(buf, byte(relation))
	return buf
}

// makeEdgePendPrefix generates the common prefix of all pending-index entries
// for a target.
func makeEdgePendPrefix(target core.DocumentID) []byte {
	prefix := edgePendPrefix + ":"
	buf := make([]byte, 0, len(prefix)+len(target)+1)
	buf = append(buf, prefix...)
	buf = append(buf, target...)
	buf = append(buf, sep)
	return buf
}
