package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// RefundRepository implements repositories.RefundRepository
type RefundRepository struct {
	db *gorm.DB
}

// NewRefundRepository creates a new RefundRepository
func NewRefundRepository(db *gorm.DB) repositories.RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) FindByBetID(ctx context.Context, betID string) ([]*models.Refund, error) {
	if _, err := uuid.Parse(betID); err != nil {
		return []*models.Refund{}, nil
	}
	return r.find(r.db.WithContext(ctx).Where("bet_id = ?", betID))
}

func (r *RefundRepository) FindByDealerID(ctx context.Context, dealerID string) ([]*models.Refund, error) {
	return r.find(r.db.WithContext(ctx).Where("dealer_id = ?", dealerID))
}

func (r *RefundRepository) find(q *gorm.DB) ([]*models.Refund, error) {
	refunds := []*models.Refund{}
	if err := q.Order("created_at DESC").Find(&refunds).Error; err != nil {
		return nil, fmt.Errorf("failed to find refunds: %w", err)
	}
	return refunds, nil
}
