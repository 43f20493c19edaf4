// Package memory provides the agencyd memory capability: an embedded
// vector store over chromem-go that remembers processed content and recalls
// related entries by similarity.
//
// The store performs no I/O at construction; the persistent database is
// opened lazily on first use. A Store is safe for concurrent use.
package memory
