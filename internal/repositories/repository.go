package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/inzamam-virk/lottery-app/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateSlot is returned when a scheduled draw already exists for the slot.
	ErrDuplicateSlot = errors.New("a scheduled draw already exists for this slot")
	// ErrStatusConflict is returned when a conditional status transition does not match.
	ErrStatusConflict = errors.New("draw status changed concurrently")
	// ErrDrawNotOpen is returned when a bet targets a draw that is no longer scheduled.
	ErrDrawNotOpen = errors.New("draw is not open for betting")
	// ErrBetAlreadyResolved is returned when a bet has already left pending.
	ErrBetAlreadyResolved = errors.New("bet already resolved")
)

// DrawRepository defines the interface for draw data operations
type DrawRepository interface {
	// Create inserts a scheduled draw. Returns ErrDuplicateSlot if the slot is taken.
	Create(ctx context.Context, draw *models.Draw) error
	FindByID(ctx context.Context, id string) (*models.Draw, error)
	// FindScheduledAt returns the scheduled draw for the exact slot or ErrNotFound.
	FindScheduledAt(ctx context.Context, scheduledAt time.Time) (*models.Draw, error)
	// FindDue returns scheduled draws with scheduled_at <= now, oldest first.
	FindDue(ctx context.Context, now time.Time) ([]*models.Draw, error)
	// FindUpcoming returns scheduled draws with scheduled_at >= now, oldest first.
	FindUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Draw, error)
	// FindByStatus returns draws in the given status, newest first.
	FindByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error)
	// MarkInProgress moves a draw from scheduled to in_progress. Returns
	// ErrStatusConflict if the draw is no longer scheduled.
	MarkInProgress(ctx context.Context, id string, startedAt time.Time) error
	// Complete moves a draw from in_progress to completed with its outcome.
	Complete(ctx context.Context, id string, outcome models.DrawOutcome) error
	// Cancel moves a draw from scheduled or in_progress to cancelled.
	Cancel(ctx context.Context, id string, reason string, at time.Time) error
}

// BetRepository defines the interface for bet data operations
type BetRepository interface {
	// Create inserts a pending bet after re-checking, in the same atomic unit,
	// that the target draw is still scheduled. Returns ErrDrawNotOpen otherwise.
	Create(ctx context.Context, bet *models.Bet) error
	FindByID(ctx context.Context, id string) (*models.Bet, error)
	// Find lists bets matching the filter, newest first.
	Find(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error)
	// Resolve moves a pending bet to won or lost and inserts its refund, if
	// any, atomically. Returns ErrBetAlreadyResolved if the bet is not pending.
	Resolve(ctx context.Context, resolution models.BetResolution) error
}

// RefundRepository defines the interface for refund data operations
type RefundRepository interface {
	FindByBetID(ctx context.Context, betID string) ([]*models.Refund, error)
	FindByDealerID(ctx context.Context, dealerID string) ([]*models.Refund, error)
}

// TransactionRepository defines the interface for the audit log
type TransactionRepository interface {
	Create(ctx context.Context, txn *models.Transaction) error
}

// Store groups the repositories of one backing record store.
type Store struct {
	Draws        DrawRepository
	Bets         BetRepository
	Refunds      RefundRepository
	Transactions TransactionRepository
}
