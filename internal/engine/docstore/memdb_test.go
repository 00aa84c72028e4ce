package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memDB is an in-memory Database for tests.
type memDB struct {
	mu         sync.Mutex
	cols       map[string]*memCollection
	failInsert string // collection name whose inserts fail
}

func newMemDB() *memDB {
	return &memDB{cols: make(map[string]*memCollection)}
}

func (m *memDB) Collection(name string) Collection {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cols[name]
	if !ok {
		c = &memCollection{db: m, name: name}
		m.cols[name] = c
	}
	return c
}

func (m *memDB) CollectionNames(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.cols))
	for n := range m.cols {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// seed stores raw documents as-is, bypassing the cache.
func (m *memDB) seed(name string, docs ...Document) {
	c := m.Collection(name).(*memCollection)
	c.docs = append(c.docs, docs...)
}

func (m *memDB) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cols[name]; ok {
		return len(c.docs)
	}
	return 0
}

type memCollection struct {
	db   *memDB
	name string
	docs []Document
}

func (c *memCollection) DeleteAll(context.Context) (int64, error) {
	n := int64(len(c.docs))
	c.docs = nil
	return n, nil
}

func (c *memCollection) InsertOne(ctx context.Context, doc any) error {
	return c.InsertMany(ctx, []any{doc})
}

func (c *memCollection) InsertMany(_ context.Context, docs []any) error {
	if c.db.failInsert == c.name {
		return errors.New("insert refused")
	}
	for _, d := range docs {
		m, ok := asDocument(d)
		if !ok {
			return fmt.Errorf("not a document: %T", d)
		}
		cp := Document{idField: primitive.NewObjectID()}
		for k, v := range m {
			cp[k] = v
		}
		c.docs = append(c.docs, cp)
	}
	return nil
}

func (c *memCollection) FindOne(context.Context) (Document, error) {
	if len(c.docs) == 0 {
		return nil, ErrNotFound
	}
	return c.docs[0], nil
}

func (c *memCollection) FindAll(context.Context) ([]Document, error) {
	return append([]Document(nil), c.docs...), nil
}
