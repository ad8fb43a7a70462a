// Package store persists trades to MongoDB.
package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/suwandre/tv-trading-bot/internal/trade"
)

const (
	activeCollection = "ActiveTrades"
	closedCollection = "ClosedTrades"
)

// Mongo manages the trade collections and provides shared access across the app.
type Mongo struct {
	client *mongo.Client
	active *mongo.Collection
	closed *mongo.Collection
}

// Connect initializes the MongoDB client, verifies the connection with a
// ping, and binds the trade collections.
func Connect(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Database("admin").RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	return &Mongo{
		client: client,
		active: db.Collection(activeCollection),
		closed: db.Collection(closedCollection),
	}, nil
}

// InsertActive records a freshly opened trade.
func (m *Mongo) InsertActive(ctx context.Context, t trade.ActiveTrade) error {
	if _, err := m.active.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert active trade: %w", err)
	}
	return nil
}

// RemoveActive deletes an open trade by ID, typically right before the
// matching closed trade is inserted.
func (m *Mongo) RemoveActive(ctx context.Context, id primitive.ObjectID) error {
	if _, err := m.active.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("remove active trade: %w", err)
	}
	return nil
}

// InsertClosed records a settled trade.
func (m *Mongo) InsertClosed(ctx context.Context, t trade.ClosedTrade) error {
	if _, err := m.closed.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert closed trade: %w", err)
	}
	return nil
}

// ActiveTrades loads every open trade, used to rebuild the in-memory
// book after a restart.
func (m *Mongo) ActiveTrades(ctx context.Context) ([]trade.ActiveTrade, error) {
	cursor, err := m.active.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find active trades: %w", err)
	}
	var trades []trade.ActiveTrade
	if err := cursor.All(ctx, &trades); err != nil {
		return nil, fmt.Errorf("decode active trades: %w", err)
	}
	return trades, nil
}

// Disconnect releases the underlying client.
func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
