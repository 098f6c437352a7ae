package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// NewStore builds every MongoDB repository on one database
func NewStore(db *mongo.Database) repositories.Store {
	return repositories.Store{
		Draws:        NewDrawRepository(db),
		Bets:         NewBetRepository(db),
		Refunds:      NewRefundRepository(db),
		Transactions: NewTransactionRepository(db),
	}
}

// EnsureIndexes creates the indexes the repositories rely on. The partial
// unique index on draws.scheduledAt allows one scheduled draw per slot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		drawsCollection: {
			{
				Keys: bson.D{{Key: "scheduledAt", Value: 1}},
				Options: options.Index().
					SetName("uniq_scheduled_slot").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.DrawStatusScheduled}),
			},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "scheduledAt", Value: 1}}},
		},
		betsCollection: {
			{Keys: bson.D{{Key: "drawId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "dealerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		refundsCollection: {
			{Keys: bson.D{{Key: "betId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "dealerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for collection, idx := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
