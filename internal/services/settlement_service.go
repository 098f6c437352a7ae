package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/lock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

var _ SettlementService = (*SettlementServiceImpl)(nil)

// SettlementServiceImpl drives due draws through in_progress to completed or cancelled
type SettlementServiceImpl struct {
	store      repositories.Store
	policy     *clock.Policy
	clock      clock.Clock
	numbers    NumberSource
	locker     lock.Locker
	publisher  Publisher
	refundNote string
}

// SettlementOption customises a SettlementServiceImpl
type SettlementOption func(*SettlementServiceImpl)

// WithNumberSource replaces the crypto/rand winning number source.
func WithNumberSource(src NumberSource) SettlementOption {
	return func(s *SettlementServiceImpl) { s.numbers = src }
}

// WithLocker sets the cross-process locker used per draw.
func WithLocker(l lock.Locker) SettlementOption {
	return func(s *SettlementServiceImpl) { s.locker = l }
}

// WithPublisher sets the receiver of draw completed/cancelled events.
func WithPublisher(p Publisher) SettlementOption {
	return func(s *SettlementServiceImpl) { s.publisher = p }
}

// WithRefundNote overrides the note stored on refund records.
func WithRefundNote(note string) SettlementOption {
	return func(s *SettlementServiceImpl) { s.refundNote = note }
}

// NewSettlementService creates a new SettlementServiceImpl
func NewSettlementService(store repositories.Store, policy *clock.Policy, clk clock.Clock, opts ...SettlementOption) *SettlementServiceImpl {
	s := &SettlementServiceImpl{
		store:     store,
		policy:    policy,
		clock:     clk,
		numbers:   CryptoNumberSource{},
		locker:    lock.NewLocal(),
		publisher: noopPublisher{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.refundNote == "" {
		s.refundNote = fmt.Sprintf("%s%% refund for losing bet", policy.RefundFraction.Mul(decimal.NewFromInt(100)).String())
	}
	return s
}

// RunDueDraws settles every due draw. Failures of a single draw are
// reported in its result and never abort the batch; only a failure to list
// due draws is returned as an error.
func (s *SettlementServiceImpl) RunDueDraws(ctx context.Context, now time.Time) (*RunResult, error) {
	if now.After(s.clock.Now()) {
		return nil, ErrFutureRun
	}

	due, err := s.store.Draws.FindDue(ctx, now)
	if err != nil {
		slog.Error("Failed to fetch due draws", "error", err)
		return nil, repoErr("fetch due draws", err)
	}

	result := &RunResult{Results: []DrawResult{}, CurrentTime: now}
	if len(due) == 0 {
		slog.Debug("No draws due to run", "now", now)
		return result, nil
	}

	for _, draw := range due {
		drawResult, processed := s.runDraw(ctx, draw, now)
		if !processed {
			continue
		}
		result.Results = append(result.Results, *drawResult)
	}
	result.ProcessedCount = len(result.Results)

	slog.Info("Processed due draws", "due", len(due), "processed", result.ProcessedCount)
	return result, nil
}

// runDraw settles one draw. The second return value is false when the draw
// was claimed by another invocation and should not be reported.
func (s *SettlementServiceImpl) runDraw(ctx context.Context, draw *models.Draw, now time.Time) (*DrawResult, bool) {
	result := &DrawResult{DrawID: draw.ID, ScheduledAt: draw.ScheduledAt, Status: models.DrawStatusScheduled}

	release, err := s.locker.Acquire(ctx, drawLockKey(draw.ID))
	if errors.Is(err, lock.ErrNotAcquired) {
		slog.Info("Draw is being settled elsewhere, skipping", "drawId", draw.ID)
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to lock draw", "error", err, "drawId", draw.ID)
		result.Error = (&SettlementError{DrawID: draw.ID, Stage: "lock", Err: err}).Error()
		return result, true
	}
	defer s.release(release, draw.ID)

	if err := s.store.Draws.MarkInProgress(ctx, draw.ID, now); err != nil {
		if errors.Is(err, repositories.ErrStatusConflict) {
			slog.Info("Draw already left scheduled state, skipping", "drawId", draw.ID)
			return nil, false
		}
		slog.Error("Failed to start draw", "error", err, "drawId", draw.ID)
		result.Error = (&SettlementError{DrawID: draw.ID, Stage: "start", Err: err}).Error()
		return result, true
	}

	err = s.settle(ctx, draw, now, result)
	if err != nil {
		s.cancel(ctx, draw, now, result, err)
		return result, true
	}

	result.Status = models.DrawStatusCompleted
	s.audit(ctx, draw, result)
	slog.Info("Draw completed", "drawId", draw.ID, "winningNumber", *result.WinningNumber, "totalBets", *result.TotalBets, "failedBets", len(result.FailedBets))
	s.publisher.Publish(EventDrawCompleted, result)
	return result, true
}

// settle runs the in_progress part of a draw. Any returned error means the
// draw has to be cancelled. Panics are converted to errors.
func (s *SettlementServiceImpl) settle(ctx context.Context, draw *models.Draw, now time.Time, result *DrawResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SettlementError{DrawID: draw.ID, Stage: "panic", Err: fmt.Errorf("%v", r)}
		}
	}()

	winningNumber, err := s.numbers.Next()
	if err != nil {
		return &SettlementError{DrawID: draw.ID, Stage: "winning number", Err: err}
	}
	if !clock.ValidNumber(winningNumber) {
		return &SettlementError{DrawID: draw.ID, Stage: "winning number", Err: fmt.Errorf("%d out of range", winningNumber)}
	}

	bets, err := s.store.Bets.Find(ctx, models.BetFilter{DrawID: draw.ID})
	if err != nil {
		return &SettlementError{DrawID: draw.ID, Stage: "fetch bets", Err: err}
	}

	tally := s.resolveBets(ctx, bets, winningNumber, now)

	outcome := models.DrawOutcome{
		FinishedAt:    now,
		WinningNumber: winningNumber,
		TotalBets:     tally.totalBets,
		TotalStake:    tally.totalStake,
		WinningBets:   tally.winningBets,
		TotalRefund:   tally.totalRefund,
	}
	if err := s.store.Draws.Complete(ctx, draw.ID, outcome); err != nil {
		return &SettlementError{DrawID: draw.ID, Stage: "complete", Err: err}
	}

	result.WinningNumber = &outcome.WinningNumber
	result.TotalBets = &outcome.TotalBets
	result.TotalStake = &outcome.TotalStake
	result.WinningBets = &outcome.WinningBets
	result.TotalRefund = &outcome.TotalRefund
	result.ResolvedBets = tally.resolved
	result.FailedBets = tally.failures
	return nil
}

type betTally struct {
	totalBets   int
	totalStake  decimal.Decimal
	winningBets int
	totalRefund decimal.Decimal
	resolved    int
	failures    []BetResult
}

// resolveBets resolves each pending bet independently. Totals cover every
// bet of the draw; persistence failures are collected, not returned.
func (s *SettlementServiceImpl) resolveBets(ctx context.Context, bets []*models.Bet, winningNumber int, now time.Time) betTally {
	tally := betTally{totalStake: decimal.Zero, totalRefund: decimal.Zero}

	for _, bet := range bets {
		tally.totalBets++
		tally.totalStake = tally.totalStake.Add(bet.Stake)

		res := s.resolution(bet, winningNumber, now)
		if res.Status == models.BetStatusWon {
			tally.winningBets++
		} else {
			tally.totalRefund = tally.totalRefund.Add(*res.RefundAmount)
		}

		if bet.Status != models.BetStatusPending {
			continue
		}
		if err := s.store.Bets.Resolve(ctx, res); err != nil && !errors.Is(err, repositories.ErrBetAlreadyResolved) {
			slog.Warn("Failed to resolve bet", "error", err, "betId", bet.ID, "drawId", bet.DrawID)
			tally.failures = append(tally.failures, BetResult{BetID: bet.ID, Status: models.BetStatusPending, Error: err.Error()})
			continue
		}
		tally.resolved++
	}
	return tally
}

// resolution computes the outcome of one bet against the winning number.
func (s *SettlementServiceImpl) resolution(bet *models.Bet, winningNumber int, now time.Time) models.BetResolution {
	if bet.Number == winningNumber {
		win := s.policy.PotentialWin(bet.Stake)
		return models.BetResolution{BetID: bet.ID, Status: models.BetStatusWon, PotentialWin: &win, ResolvedAt: now}
	}
	refund := s.policy.RefundAmount(bet.Stake)
	return models.BetResolution{
		BetID:        bet.ID,
		Status:       models.BetStatusLost,
		RefundAmount: &refund,
		Refund: &models.Refund{
			BetID:     bet.ID,
			DealerID:  bet.DealerID,
			Amount:    refund,
			Notes:     s.refundNote,
			CreatedAt: now,
		},
		ResolvedAt: now,
	}
}

func (s *SettlementServiceImpl) cancel(ctx context.Context, draw *models.Draw, now time.Time, result *DrawResult, cause error) {
	slog.Error("Draw settlement failed, cancelling", "error", cause, "drawId", draw.ID)
	result.Status = models.DrawStatusCancelled
	result.Error = cause.Error()

	if err := s.store.Draws.Cancel(context.WithoutCancel(ctx), draw.ID, cause.Error(), now); err != nil {
		slog.Error("CRITICAL: Failed to cancel draw", "error", err, "drawId", draw.ID)
		result.Error = fmt.Sprintf("%s; cancel failed: %v", result.Error, err)
	}
	s.publisher.Publish(EventDrawCancelled, result)
}

// audit appends the draw_completed transaction. A failure here leaves the
// draw completed and is reported on the result.
func (s *SettlementServiceImpl) audit(ctx context.Context, draw *models.Draw, result *DrawResult) {
	txn := &models.Transaction{
		Type:   models.TransactionTypeDrawCompleted,
		Amount: *result.TotalStake,
		Description: fmt.Sprintf("Draw %s completed. Winning number: %d. Total bets: %d",
			draw.ID, *result.WinningNumber, *result.TotalBets),
		Metadata: models.TransactionMetadata{
			DrawID:        draw.ID,
			WinningNumber: *result.WinningNumber,
			TotalBets:     *result.TotalBets,
			WinningBets:   *result.WinningBets,
			TotalRefund:   *result.TotalRefund,
		},
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.Transactions.Create(context.WithoutCancel(ctx), txn); err != nil {
		slog.Error("Failed to write draw audit transaction", "error", err, "drawId", draw.ID)
		result.AuditError = err.Error()
	}
}

// SettleDraw re-resolves bets left pending on a completed draw using its
// stored winning number. Resolved bets are never touched again.
func (s *SettlementServiceImpl) SettleDraw(ctx context.Context, drawID string) (*DrawResult, error) {
	draw, err := s.store.Draws.FindByID(ctx, drawID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, repoErr("find draw", err)
	}
	if draw.Status != models.DrawStatusCompleted || draw.WinningNumber == nil {
		return nil, ErrDrawNotSettleable
	}

	release, err := s.locker.Acquire(ctx, drawLockKey(draw.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock draw %s: %w", draw.ID, err)
	}
	defer s.release(release, draw.ID)

	pending, err := s.store.Bets.Find(ctx, models.BetFilter{DrawID: draw.ID, Status: models.BetStatusPending})
	if err != nil {
		return nil, repoErr("fetch pending bets", err)
	}

	now := s.clock.Now()
	result := &DrawResult{
		DrawID:        draw.ID,
		ScheduledAt:   draw.ScheduledAt,
		Status:        draw.Status,
		WinningNumber: draw.WinningNumber,
		TotalBets:     &draw.TotalBets,
		TotalStake:    &draw.TotalStake,
		WinningBets:   &draw.WinningBets,
		TotalRefund:   &draw.TotalRefund,
	}
	for _, bet := range pending {
		res := s.resolution(bet, *draw.WinningNumber, now)
		if err := s.store.Bets.Resolve(ctx, res); err != nil && !errors.Is(err, repositories.ErrBetAlreadyResolved) {
			slog.Warn("Retry failed to resolve bet", "error", err, "betId", bet.ID, "drawId", draw.ID)
			result.FailedBets = append(result.FailedBets, BetResult{BetID: bet.ID, Status: models.BetStatusPending, Error: err.Error()})
			continue
		}
		result.ResolvedBets++
	}

	slog.Info("Draw re-settled", "drawId", draw.ID, "resolved", result.ResolvedBets, "failed", len(result.FailedBets))
	return result, nil
}

func (s *SettlementServiceImpl) release(release lock.Release, drawID string) {
	if err := release(context.Background()); err != nil {
		slog.Warn("Failed to release draw lock", "error", err, "drawId", drawID)
	}
}

func drawLockKey(drawID string) string {
	return "draw:" + drawID + ":settle"
}
