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

const drawsCollection = "draws"

// DrawRepository implements the repositories.DrawRepository interface
type DrawRepository struct {
	collection *mongo.Collection
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *mongo.Database) repositories.DrawRepository {
	return &DrawRepository{
		collection: db.Collection(drawsCollection),
	}
}

// Create inserts a scheduled draw. The partial unique index on scheduledAt
// turns a concurrent second insert into ErrDuplicateSlot.
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	if draw.ID == "" {
		draw.ID = uuid.NewString()
	}
	if draw.CreatedAt.IsZero() {
		draw.CreatedAt = time.Now()
	}
	draw.UpdatedAt = draw.CreatedAt
	if _, err := r.collection.InsertOne(ctx, draw); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicateSlot
		}
		return fmt.Errorf("failed to insert draw: %w", err)
	}
	return nil
}

// FindByID finds a draw by ID
func (r *DrawRepository) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindScheduledAt finds the scheduled draw for an exact slot
func (r *DrawRepository) FindScheduledAt(ctx context.Context, scheduledAt time.Time) (*models.Draw, error) {
	return r.findOne(ctx, bson.M{"status": models.DrawStatusScheduled, "scheduledAt": scheduledAt})
}

// FindDue finds scheduled draws whose slot has passed
func (r *DrawRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	filter := bson.M{
		"status":      models.DrawStatusScheduled,
		"scheduledAt": bson.M{"$lte": now},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.M{"scheduledAt": 1}))
}

// FindUpcoming finds scheduled draws that have not started yet
func (r *DrawRepository) FindUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Draw, error) {
	filter := bson.M{
		"status":      models.DrawStatusScheduled,
		"scheduledAt": bson.M{"$gte": now},
	}
	opts := options.Find().SetSort(bson.M{"scheduledAt": 1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

// FindByStatus finds draws by status, newest slot first
func (r *DrawRepository) FindByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error) {
	opts := options.Find().SetSort(bson.M{"scheduledAt": -1})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"status": status}, opts)
}

// MarkInProgress is a compare-and-swap on status scheduled -> in_progress
func (r *DrawRepository) MarkInProgress(ctx context.Context, id string, startedAt time.Time) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusScheduled}, bson.M{
		"status":    models.DrawStatusInProgress,
		"startedAt": startedAt,
	})
}

// Complete writes the outcome of an in_progress draw
func (r *DrawRepository) Complete(ctx context.Context, id string, outcome models.DrawOutcome) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusInProgress}, bson.M{
		"status":        models.DrawStatusCompleted,
		"finishedAt":    outcome.FinishedAt,
		"winningNumber": outcome.WinningNumber,
		"totalBets":     outcome.TotalBets,
		"totalStake":    outcome.TotalStake,
		"winningBets":   outcome.WinningBets,
		"totalRefund":   outcome.TotalRefund,
	})
}

// Cancel moves a non-terminal draw to cancelled
func (r *DrawRepository) Cancel(ctx context.Context, id string, reason string, at time.Time) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusScheduled, models.DrawStatusInProgress}, bson.M{
		"status":       models.DrawStatusCancelled,
		"finishedAt":   at,
		"errorMessage": reason,
	})
}

// transition applies set only while the draw is in one of the from states.
func (r *DrawRepository) transition(ctx context.Context, id string, from []models.DrawStatus, set bson.M) error {
	set["updatedAt"] = time.Now()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": from}},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update draw %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to check draw %s: %w", id, err)
		}
		if count == 0 {
			return repositories.ErrNotFound
		}
		return repositories.ErrStatusConflict
	}
	return nil
}

func (r *DrawRepository) findOne(ctx context.Context, filter bson.M) (*models.Draw, error) {
	var draw models.Draw
	err := r.collection.FindOne(ctx, filter).Decode(&draw)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find draw: %w", err)
	}
	return &draw, nil
}

func (r *DrawRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Draw, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute find query: %w", err)
	}
	defer cursor.Close(ctx)

	var draws []*models.Draw
	if err := cursor.All(ctx, &draws); err != nil {
		return nil, fmt.Errorf("failed to decode draws: %w", err)
	}
	// Return an empty slice instead of nil if no documents are found
	if draws == nil {
		draws = []*models.Draw{}
	}
	return draws, nil
}
