package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Options struct {
	URI        string
	Database   string
	Collection string
}

// Connect opens the Mongo client and returns the recipes collection with its
// indexes in place.
func Connect(ctx context.Context, opts Options) (*mongo.Client, *mongo.Collection, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(opts.Database).Collection(opts.Collection)
	if err := CreateIndexes(connectCtx, coll); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, coll, nil
}

// CreateIndexes adds the owner lookup index and the unique (user_id, id) key.
func CreateIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "is_shared", Value: 1}, {Key: "saved_date", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create recipe indexes: %w", err)
	}
	return nil
}
