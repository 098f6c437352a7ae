package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// BetRepository implements repositories.BetRepository
type BetRepository struct {
	db *gorm.DB
}

// NewBetRepository creates a new BetRepository
func NewBetRepository(db *gorm.DB) repositories.BetRepository {
	return &BetRepository{db: db}
}

// Create locks the draw row, re-checks it is scheduled and inserts the bet
// in one transaction. The settlement status update waits on the same row lock.
func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	if bet.ID == "" {
		bet.ID = uuid.NewString()
	}
	if _, err := uuid.Parse(bet.DrawID); err != nil {
		return repositories.ErrDrawNotOpen
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var draw models.Draw
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			Where("id = ?", bet.DrawID).
			First(&draw).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.ErrDrawNotOpen
		}
		if err != nil {
			return fmt.Errorf("failed to lock draw %s: %w", bet.DrawID, err)
		}
		if draw.Status != models.DrawStatusScheduled {
			return repositories.ErrDrawNotOpen
		}

		if err := tx.Create(bet).Error; err != nil {
			return fmt.Errorf("failed to insert bet: %w", err)
		}
		return tx.Model(&models.Draw{}).Where("id = ?", bet.DrawID).Update("last_bet_at", bet.CreatedAt).Error
	})
}

func (r *BetRepository) FindByID(ctx context.Context, id string) (*models.Bet, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repositories.ErrNotFound
	}
	var bet models.Bet
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&bet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find bet: %w", err)
	}
	return &bet, nil
}

func (r *BetRepository) Find(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	q := r.db.WithContext(ctx).Model(&models.Bet{})
	if filter.DealerID != "" {
		q = q.Where("dealer_id = ?", filter.DealerID)
	}
	if filter.DrawID != "" {
		if _, err := uuid.Parse(filter.DrawID); err != nil {
			return []*models.Bet{}, nil
		}
		q = q.Where("draw_id = ?", filter.DrawID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	bets := []*models.Bet{}
	if err := q.Order("created_at DESC, id DESC").Find(&bets).Error; err != nil {
		return nil, fmt.Errorf("failed to find bets: %w", err)
	}
	return bets, nil
}

// Resolve updates a pending bet and inserts its refund in one transaction
func (r *BetRepository) Resolve(ctx context.Context, res models.BetResolution) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":     res.Status,
			"updated_at": res.ResolvedAt,
		}
		if res.PotentialWin != nil {
			updates["potential_win"] = *res.PotentialWin
		}
		if res.RefundAmount != nil {
			updates["refund_amount"] = *res.RefundAmount
		}

		result := tx.Model(&models.Bet{}).
			Where("id = ? AND status = ?", res.BetID, models.BetStatusPending).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update bet %s: %w", res.BetID, result.Error)
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.Bet{}).Where("id = ?", res.BetID).Count(&count).Error; err != nil {
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
			if err := tx.Create(&refund).Error; err != nil {
				return fmt.Errorf("failed to insert refund for bet %s: %w", res.BetID, err)
			}
		}
		return nil
	})
}
