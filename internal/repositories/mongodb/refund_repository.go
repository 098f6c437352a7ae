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

const refundsCollection = "refunds"

// RefundRepository implements the repositories.RefundRepository interface
type RefundRepository struct {
	collection *mongo.Collection
}

// NewRefundRepository creates a new RefundRepository
func NewRefundRepository(db *mongo.Database) repositories.RefundRepository {
	return &RefundRepository{collection: db.Collection(refundsCollection)}
}

func (r *RefundRepository) FindByBetID(ctx context.Context, betID string) ([]*models.Refund, error) {
	return r.find(ctx, bson.M{"betId": betID})
}

func (r *RefundRepository) FindByDealerID(ctx context.Context, dealerID string) ([]*models.Refund, error) {
	return r.find(ctx, bson.M{"dealerId": dealerID})
}

func (r *RefundRepository) find(ctx context.Context, filter bson.M) ([]*models.Refund, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, fmt.Errorf("failed to execute find query: %w", err)
	}
	defer cursor.Close(ctx)

	var refunds []*models.Refund
	if err := cursor.All(ctx, &refunds); err != nil {
		return nil, fmt.Errorf("failed to decode refunds: %w", err)
	}
	if refunds == nil {
		refunds = []*models.Refund{}
	}
	return refunds, nil
}
