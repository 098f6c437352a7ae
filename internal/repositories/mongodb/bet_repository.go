package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

const betsCollection = "bets"

// BetRepository implements the repositories.BetRepository interface
type BetRepository struct {
	db      *mongo.Database
	bets    *mongo.Collection
	draws   *mongo.Collection
	refunds *mongo.Collection
}

// NewBetRepository creates a new BetRepository
func NewBetRepository(db *mongo.Database) repositories.BetRepository {
	return &BetRepository{
		db:      db,
		bets:    db.Collection(betsCollection),
		draws:   db.Collection(drawsCollection),
		refunds: db.Collection(refundsCollection),
	}
}

// Create inserts a bet in the same transaction as a write to its draw that
// only matches while the draw is scheduled. A concurrent status change on
// the draw conflicts with that write, so a bet can never land on a draw
// that has already started.
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	if bet.ID == "" {
		bet.ID = uuid.NewString()
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now()
	}
	bet.UpdatedAt = bet.CreatedAt

	return withTransaction(ctx, r.db, func(sc mongo.SessionContext) error {
		res, err := r.draws.UpdateOne(sc,
			bson.M{"_id": bet.DrawID, "status": models.DrawStatusScheduled},
			bson.M{"$set": bson.M{"lastBetAt": bet.CreatedAt}},
		)
		if err != nil {
			return fmt.Errorf("failed to lock draw %s: %w", bet.DrawID, err)
		}
		if res.MatchedCount == 0 {
			return repositories.ErrDrawNotOpen
		}
		if _, err := r.bets.InsertOne(sc, bet); err != nil {
			return fmt.Errorf("failed to insert bet: %w", err)
		}
		return nil
	})
}

// FindByID finds a bet by ID
func (r *BetRepository) FindByID(ctx context.Context, id string) (*models.Bet, error) {
	var bet models.Bet
	if err := r.bets.FindOne(ctx, bson.M{"_id": id}).Decode(&bet); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bet: %w", err)
	}
	return &bet, nil
}

// Find lists bets matching the filter, newest first
func (r *BetRepository) Find(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	query := bson.M{}
	if filter.DealerID != "" {
		query["dealerId"] = filter.DealerID
	}
	if filter.DrawID != "" {
		query["drawId"] = filter.DrawID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.bets.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute find query: %w", err)
	}
	defer cursor.Close(ctx)

	var bets []*models.Bet
	if err := cursor.All(ctx, &bets); err != nil {
		return nil, fmt.Errorf("failed to decode bets: %w", err)
	}
	if bets == nil {
		bets = []*models.Bet{}
	}
	return bets, nil
}

// Resolve updates a pending bet and inserts its refund in one transaction
func (r *BetRepository) Resolve(ctx context.Context, res models.BetResolution) error {
	return withTransaction(ctx, r.db, func(sc mongo.SessionContext) error {
		set := bson.M{"status": res.Status, "updatedAt": res.ResolvedAt}
		if res.PotentialWin != nil {
			set["potentialWin"] = *res.PotentialWin
		}
		if res.RefundAmount != nil {
			set["refundAmount"] = *res.RefundAmount
		}

		updated, err := r.bets.UpdateOne(sc,
			bson.M{"_id": res.BetID, "status": models.BetStatusPending},
			bson.M{"$set": set},
		)
		if err != nil {
			return fmt.Errorf("failed to update bet %s: %w", res.BetID, err)
		}
		if updated.MatchedCount == 0 {
			count, err := r.bets.CountDocuments(sc, bson.M{"_id": res.BetID})
			if err != nil {
				return fmt.Errorf("failed to check bet %s: %w", res.BetID, err)
			}
			if count == 0 {
				return repositories.ErrNotFound
			}
			return repositories.ErrBetAlreadyResolved
		}

		if res.Refund != nil {
			refund := *res.Refund
			if refund.ID == "" {
				refund.ID = uuid.NewString()
			}
			if _, err := r.refunds.InsertOne(sc, refund); err != nil {
				return fmt.Errorf("failed to insert refund for bet %s: %w", res.BetID, err)
			}
		}
		return nil
	})
}
