package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

var _ BetService = (*BetServiceImpl)(nil)

// BetServiceImpl admits bets and serves bet and refund queries
type BetServiceImpl struct {
	drawRepo   repositories.DrawRepository
	betRepo    repositories.BetRepository
	refundRepo repositories.RefundRepository
	policy     *clock.Policy
	clock      clock.Clock
}

// NewBetService creates a new BetServiceImpl
func NewBetService(
	drawRepo repositories.DrawRepository,
	betRepo repositories.BetRepository,
	refundRepo repositories.RefundRepository,
	policy *clock.Policy,
	clk clock.Clock,
) *BetServiceImpl {
	return &BetServiceImpl{
		drawRepo:   drawRepo,
		betRepo:    betRepo,
		refundRepo: refundRepo,
		policy:     policy,
		clock:      clk,
	}
}

// PlaceBet validates the candidate and inserts it. Rejections are returned
// as an unaccepted result, not as an error.
func (s *BetServiceImpl) PlaceBet(ctx context.Context, candidate models.BetCandidate) (*PlaceBetResult, error) {
	if candidate.DealerID == "" {
		return nil, ErrDealerRequired
	}
	now := s.clock.Now()

	draw, err := s.targetDraw(ctx, candidate.DrawID, now)
	if err != nil {
		return nil, err
	}

	bet, err := ValidateAndPrepareBet(s.policy, candidate, draw, now)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			slog.Debug("Bet rejected", "reason", verr.Reason, "dealerId", candidate.DealerID, "drawId", candidate.DrawID)
			return &PlaceBetResult{Accepted: false, RejectionReason: verr.Reason, Message: verr.Message}, nil
		}
		return nil, err
	}

	if err := s.betRepo.Create(ctx, bet); err != nil {
		if errors.Is(err, repositories.ErrDrawNotOpen) {
			slog.Info("Bet rejected at insert, draw left scheduled state", "drawId", bet.DrawID, "dealerId", bet.DealerID)
			return &PlaceBetResult{Accepted: false, RejectionReason: RejectDrawNotOpen, Message: "draw is not open for betting"}, nil
		}
		slog.Error("Failed to insert bet", "error", err, "drawId", bet.DrawID)
		return nil, repoErr("create bet", err)
	}

	slog.Info("Bet placed", "betId", bet.ID, "drawId", bet.DrawID, "dealerId", bet.DealerID, "number", bet.Number, "stake", bet.Stake.String())
	return &PlaceBetResult{Accepted: true, Bet: bet}, nil
}

// targetDraw resolves the draw a bet is aimed at. A missing draw is
// returned as nil so the validator rejects it as not open.
func (s *BetServiceImpl) targetDraw(ctx context.Context, drawID string, now time.Time) (*models.Draw, error) {
	if drawID == "" {
		draws, err := s.drawRepo.FindUpcoming(ctx, now, 1)
		if err != nil {
			return nil, repoErr("find current draw", err)
		}
		if len(draws) == 0 {
			return nil, nil
		}
		return draws[0], nil
	}
	draw, err := s.drawRepo.FindByID(ctx, drawID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repoErr("find draw", err)
	}
	return draw, nil
}

func (s *BetServiceImpl) ListBets(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	bets, err := s.betRepo.Find(ctx, filter)
	if err != nil {
		return nil, repoErr("find bets", err)
	}
	return bets, nil
}

func (s *BetServiceImpl) DealerStats(ctx context.Context, dealerID string) (*models.DealerStats, error) {
	bets, err := s.betRepo.Find(ctx, models.BetFilter{DealerID: dealerID})
	if err != nil {
		return nil, repoErr("find dealer bets", err)
	}

	stats := &models.DealerStats{
		DealerID:          dealerID,
		TotalStake:        decimal.Zero,
		TotalPotentialWin: decimal.Zero,
		TotalRefund:       decimal.Zero,
	}
	for _, b := range bets {
		stats.TotalBets++
		stats.TotalStake = stats.TotalStake.Add(b.Stake)
		switch b.Status {
		case models.BetStatusPending:
			stats.PendingBets++
		case models.BetStatusWon:
			stats.WonBets++
			if b.PotentialWin != nil {
				stats.TotalPotentialWin = stats.TotalPotentialWin.Add(*b.PotentialWin)
			}
		case models.BetStatusLost, models.BetStatusRefunded:
			stats.LostBets++
			if b.RefundAmount != nil {
				stats.TotalRefund = stats.TotalRefund.Add(*b.RefundAmount)
			}
		}
	}
	return stats, nil
}

func (s *BetServiceImpl) RefundsByBet(ctx context.Context, betID, dealerID string) ([]*models.Refund, error) {
	bet, err := s.betRepo.FindByID(ctx, betID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, repoErr("find bet", err)
	}
	if dealerID != "" && bet.DealerID != dealerID {
		return nil, repositories.ErrNotFound
	}
	refunds, err := s.refundRepo.FindByBetID(ctx, betID)
	if err != nil {
		return nil, repoErr("find refunds", err)
	}
	return refunds, nil
}

func (s *BetServiceImpl) RefundsByDealer(ctx context.Context, dealerID string) ([]*models.Refund, error) {
	refunds, err := s.refundRepo.FindByDealerID(ctx, dealerID)
	if err != nil {
		return nil, repoErr("find refunds", err)
	}
	return refunds, nil
}
