package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type sessionDocument struct {
	SessionID string `bson:"session_id"`
	PDFBytes  []byte `bson:"pdf_bytes"`
}

// MongoBackend stores one document per session
type MongoBackend struct {
	client   *mongo.Client
	sessions *mongo.Collection
}

// DialMongo connects lazily; the first Ping decides reachability.
func DialMongo(ctx context.Context, uri, database, collection string, selectionTimeout time.Duration) (*MongoBackend, error) {
	opts := options.Client().ApplyURI(uri)
	if selectionTimeout > 0 {
		opts.SetServerSelectionTimeout(selectionTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return &MongoBackend{
		client:   client,
		sessions: client.Database(database).Collection(collection),
	}, nil
}

func (b *MongoBackend) Name() string { return "mongo" }

// Ping also makes sure session ids are unique.
func (b *MongoBackend) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping mongo: %w", err)
	}
	_, err := b.sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create session index: %w", err)
	}
	return nil
}

func (b *MongoBackend) Put(ctx context.Context, id string, data []byte) error {
	_, err := b.sessions.ReplaceOne(ctx,
		bson.M{"session_id": id},
		sessionDocument{SessionID: id, PDFBytes: data},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (b *MongoBackend) Get(ctx context.Context, id string) ([]byte, bool, error) {
	var doc sessionDocument
	err := b.sessions.FindOne(ctx, bson.M{"session_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load session: %w", err)
	}
	return doc.PDFBytes, true, nil
}

func (b *MongoBackend) Remove(ctx context.Context, id string) (bool, error) {
	res, err := b.sessions.DeleteOne(ctx, bson.M{"session_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (b *MongoBackend) Keys(ctx context.Context) ([]string, error) {
	cur, err := b.sessions.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"session_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var docs []sessionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.SessionID)
	}
	return ids, nil
}

func (b *MongoBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}
