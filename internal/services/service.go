package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/inzamam-virk/lottery-app/internal/models"
)

// DrawService defines draw scheduling and draw queries
type DrawService interface {
	// ScheduleNextDraw ensures exactly one scheduled draw exists for the next hourly slot.
	ScheduleNextDraw(ctx context.Context) (*ScheduleResult, error)

	// CurrentDraw returns the earliest scheduled draw that has not started yet.
	CurrentDraw(ctx context.Context) (*models.Draw, error)

	UpcomingDraws(ctx context.Context, limit int) ([]*models.Draw, error)
	CompletedDraws(ctx context.Context, limit int) ([]*models.Draw, error)
	GetDraw(ctx context.Context, id string) (*models.Draw, error)
}

// SettlementService defines draw settlement
type SettlementService interface {
	// RunDueDraws settles every scheduled draw whose slot is at or before now.
	RunDueDraws(ctx context.Context, now time.Time) (*RunResult, error)

	// SettleDraw retries resolution of bets still pending on a completed draw.
	SettleDraw(ctx context.Context, drawID string) (*DrawResult, error)
}

// BetService defines bet intake and bet/refund queries
type BetService interface {
	PlaceBet(ctx context.Context, candidate models.BetCandidate) (*PlaceBetResult, error)
	ListBets(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error)
	DealerStats(ctx context.Context, dealerID string) (*models.DealerStats, error)
	// RefundsByBet lists a bet's refunds. A non-empty dealerID restricts to that dealer's bets.
	RefundsByBet(ctx context.Context, betID, dealerID string) ([]*models.Refund, error)
	RefundsByDealer(ctx context.Context, dealerID string) ([]*models.Refund, error)
}

// Publisher receives draw lifecycle events
type Publisher interface {
	Publish(eventType string, payload interface{})
}

const (
	EventDrawScheduled = "draw_scheduled"
	EventDrawCompleted = "draw_completed"
	EventDrawCancelled = "draw_cancelled"
)

type noopPublisher struct{}

func (noopPublisher) Publish(string, interface{}) {}

// ScheduleResult is the outcome of ScheduleNextDraw. Created is false when
// the slot already had a scheduled draw.
type ScheduleResult struct {
	Created     bool         `json:"created"`
	ScheduledAt time.Time    `json:"scheduled_at"`
	Draw        *models.Draw `json:"draw,omitempty"`
}

// PlaceBetResult is the outcome of PlaceBet
type PlaceBetResult struct {
	Accepted        bool            `json:"accepted"`
	Bet             *models.Bet     `json:"bet,omitempty"`
	RejectionReason RejectionReason `json:"rejection_reason,omitempty"`
	Message         string          `json:"message,omitempty"`
}

// BetResult reports a single bet resolution
type BetResult struct {
	BetID  string           `json:"bet_id"`
	Status models.BetStatus `json:"status"`
	Error  string           `json:"error,omitempty"`
}

// DrawResult reports the settlement of one draw. Status is scheduled only
// when the draw could not be started and will be retried.
type DrawResult struct {
	DrawID        string            `json:"draw_id"`
	ScheduledAt   time.Time         `json:"scheduled_at"`
	Status        models.DrawStatus `json:"status"`
	WinningNumber *int              `json:"winning_number,omitempty"`
	TotalBets     *int              `json:"total_bets,omitempty"`
	TotalStake    *decimal.Decimal  `json:"total_stake,omitempty"`
	WinningBets   *int              `json:"winning_bets,omitempty"`
	TotalRefund   *decimal.Decimal  `json:"total_refund,omitempty"`
	ResolvedBets  int               `json:"resolved_bets"`
	FailedBets    []BetResult       `json:"failed_bets,omitempty"`
	Error         string            `json:"error,omitempty"`
	AuditError    string            `json:"audit_error,omitempty"`
}

// RunResult is the outcome of RunDueDraws
type RunResult struct {
	ProcessedCount int          `json:"processed_count"`
	Results        []DrawResult `json:"results"`
	CurrentTime    time.Time    `json:"current_time"`
}
