package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// DrawRepository implements repositories.DrawRepository
type DrawRepository struct {
	db *gorm.DB
}

// NewDrawRepository creates a new DrawRepository
func NewDrawRepository(db *gorm.DB) repositories.DrawRepository {
	return &DrawRepository{db: db}
}

// Create inserts a scheduled draw; the partial unique index rejects a second
// scheduled draw for the same slot.
func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	if draw.ID == "" {
		draw.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(draw).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repositories.ErrDuplicateSlot
		}
		return fmt.Errorf("failed to insert draw: %w", err)
	}
	return nil
}

func (r *DrawRepository) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *DrawRepository) FindScheduledAt(ctx context.Context, scheduledAt time.Time) (*models.Draw, error) {
	return r.first(r.db.WithContext(ctx).Where("status = ? AND scheduled_at = ?", models.DrawStatusScheduled, scheduledAt))
}

func (r *DrawRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", models.DrawStatusScheduled, now).
		Order("scheduled_at ASC"))
}

func (r *DrawRepository) FindUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Draw, error) {
	q := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at >= ?", models.DrawStatusScheduled, now).
		Order("scheduled_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

func (r *DrawRepository) FindByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error) {
	q := r.db.WithContext(ctx).Where("status = ?", status).Order("scheduled_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

// MarkInProgress is a conditional update guarded by status = scheduled
func (r *DrawRepository) MarkInProgress(ctx context.Context, id string, startedAt time.Time) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusScheduled}, map[string]interface{}{
		"status":     models.DrawStatusInProgress,
		"started_at": startedAt,
	})
}

func (r *DrawRepository) Complete(ctx context.Context, id string, outcome models.DrawOutcome) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusInProgress}, map[string]interface{}{
		"status":         models.DrawStatusCompleted,
		"finished_at":    outcome.FinishedAt,
		"winning_number": outcome.WinningNumber,
		"total_bets":     outcome.TotalBets,
		"total_stake":    outcome.TotalStake,
		"winning_bets":   outcome.WinningBets,
		"total_refund":   outcome.TotalRefund,
	})
}

func (r *DrawRepository) Cancel(ctx context.Context, id string, reason string, at time.Time) error {
	return r.transition(ctx, id, []models.DrawStatus{models.DrawStatusScheduled, models.DrawStatusInProgress}, map[string]interface{}{
		"status":        models.DrawStatusCancelled,
		"finished_at":   at,
		"error_message": reason,
	})
}

func (r *DrawRepository) transition(ctx context.Context, id string, from []models.DrawStatus, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).
		Model(&models.Draw{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update draw %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.Draw{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check draw %s: %w", id, err)
		}
		if count == 0 {
			return repositories.ErrNotFound
		}
		return repositories.ErrStatusConflict
	}
	return nil
}

func (r *DrawRepository) first(q *gorm.DB) (*models.Draw, error) {
	var draw models.Draw
	if err := q.First(&draw).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find draw: %w", err)
	}
	return &draw, nil
}

func (r *DrawRepository) find(q *gorm.DB) ([]*models.Draw, error) {
	draws := []*models.Draw{}
	if err := q.Find(&draws).Error; err != nil {
		return nil, fmt.Errorf("failed to find draws: %w", err)
	}
	return draws, nil
}
