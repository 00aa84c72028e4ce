package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Database backed by MongoDB.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10*time.Second).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &Mongo{client: client, db: client.Database(dbName)}, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Collection(name string) Collection {
	return mongoCollection{c: m.db.Collection(name)}
}

func (m *Mongo) CollectionNames(ctx context.Context) ([]string, error) {
	return m.db.ListCollectionNames(ctx, bson.D{})
}

type mongoCollection struct {
	c *mongo.Collection
}

func (mc mongoCollection) DeleteAll(ctx context.Context) (int64, error) {
	res, err := mc.c.DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (mc mongoCollection) InsertOne(ctx context.Context, doc any) error {
	_, err := mc.c.InsertOne(ctx, doc)
	return err
}

func (mc mongoCollection) InsertMany(ctx context.Context, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := mc.c.InsertMany(ctx, docs)
	return err
}

func (mc mongoCollection) FindOne(ctx context.Context) (Document, error) {
	var doc bson.M
	if err := mc.c.FindOne(ctx, bson.D{}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return Document(doc), nil
}

func (mc mongoCollection) FindAll(ctx context.Context) ([]Document, error) {
	cur, err := mc.c.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = Document(d)
	}
	return out, nil
}
