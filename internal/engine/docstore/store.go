// Package docstore is the per-channel document cache.
//
// Every harvested channel owns four collections named after its sanitized
// channel name: <key>_meta, <key>_playlist, <key>_videos and <key>_comments.
// A global audit_logs collection records every packaged harvest. Replacement
// is delete-then-insert per collection; it is atomic per collection only.
package docstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindOne on an empty collection.
var ErrNotFound = errors.New("docstore: document not found")

// Document is one schemaless document as read back from the store.
type Document = map[string]any

// Database is the subset of a document database the cache needs.
type Database interface {
	Collection(name string) Collection
	CollectionNames(ctx context.Context) ([]string, error)
}

// Collection is the subset of collection operations the cache needs.
type Collection interface {
	DeleteAll(ctx context.Context) (int64, error)
	InsertOne(ctx context.Context, doc any) error
	InsertMany(ctx context.Context, docs []any) error
	FindOne(ctx context.Context) (Document, error)
	FindAll(ctx context.Context) ([]Document, error)
}

// Cache reads and writes harvested channels in a Database.
type Cache struct {
	db Database
}

// New returns a cache over db.
func New(db Database) *Cache {
	return &Cache{db: db}
}
