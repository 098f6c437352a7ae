package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/lock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

func TestRunDueDrawsPaysWinnersAndRefundsLosers(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	store, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	pub := &recordingPublisher{}

	draw := seedDraw(t, repos, now)
	w1 := seedBet(t, repos, draw.ID, 42, "100")
	w2 := seedBet(t, repos, draw.ID, 42, "50")
	l1 := seedBet(t, repos, draw.ID, 7, "200")

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithNumberSource(fixedNumber(42)), WithPublisher(pub))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, res.ProcessedCount)

	r := res.Results[0]
	assert.Equal(t, models.DrawStatusCompleted, r.Status)
	assert.Equal(t, 42, *r.WinningNumber)
	assert.Equal(t, 3, *r.TotalBets)
	assert.True(t, r.TotalStake.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, 2, *r.WinningBets)
	assert.True(t, r.TotalRefund.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, 3, r.ResolvedBets)
	assert.Empty(t, r.FailedBets)
	assert.Empty(t, r.Error)

	got := func(id string) *models.Bet {
		b, err := repos.Bets.FindByID(ctx, id)
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, models.BetStatusWon, got(w1.ID).Status)
	assert.True(t, got(w1.ID).PotentialWin.Equal(decimal.NewFromInt(90000)))
	assert.True(t, got(w2.ID).PotentialWin.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, models.BetStatusLost, got(l1.ID).Status)
	assert.True(t, got(l1.ID).RefundAmount.Equal(decimal.NewFromInt(40)))
	assert.Nil(t, got(l1.ID).PotentialWin)

	refunds, err := repos.Refunds.FindByBetID(ctx, l1.ID)
	require.NoError(t, err)
	require.Len(t, refunds, 1)
	assert.True(t, refunds[0].Amount.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "20% refund for losing bet", refunds[0].Notes)
	assert.Len(t, store.Refunds(), 1)

	stored, err := repos.Draws.FindByID(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, stored.Status)
	assert.Equal(t, 42, *stored.WinningNumber)
	assert.Equal(t, 3, stored.TotalBets)
	assert.True(t, stored.TotalStake.Equal(decimal.NewFromInt(350)))
	require.NotNil(t, stored.StartedAt)
	require.NotNil(t, stored.FinishedAt)

	txns := store.Transactions()
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionTypeDrawCompleted, txns[0].Type)
	assert.True(t, txns[0].Amount.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, "Draw "+draw.ID+" completed. Winning number: 42. Total bets: 3", txns[0].Description)
	assert.Equal(t, models.TransactionMetadata{
		DrawID: draw.ID, WinningNumber: 42, TotalBets: 3, WinningBets: 2, TotalRefund: txns[0].Metadata.TotalRefund,
	}, txns[0].Metadata)
	assert.True(t, txns[0].Metadata.TotalRefund.Equal(decimal.NewFromInt(40)))

	assert.Equal(t, []string{EventDrawCompleted}, pub.events)
}

func TestRunDueDrawsDecimalTotals(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)
	for i := 0; i < 10; i++ {
		seedBet(t, repos, draw.ID, 100+i, "0.10")
	}

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithNumberSource(fixedNumber(1)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	r := res.Results[0]
	assert.Equal(t, "1", r.TotalStake.String())
	assert.Equal(t, "0.2", r.TotalRefund.String())
}

func TestRunDueDrawsRefundsAreRoundedToCents(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	store, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)
	a := seedBet(t, repos, draw.ID, 100, "0.03")
	b := seedBet(t, repos, draw.ID, 101, "0.03")

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithNumberSource(fixedNumber(1)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	r := res.Results[0]
	assert.Equal(t, "0.06", r.TotalStake.String())
	assert.Equal(t, "0.02", r.TotalRefund.String())

	for _, id := range []string{a.ID, b.ID} {
		bet, err := repos.Bets.FindByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, bet.RefundAmount)
		assert.Equal(t, "0.01", bet.RefundAmount.String())
	}
	sum := decimal.Zero
	for _, ref := range store.Refunds() {
		sum = sum.Add(ref.Amount)
	}
	assert.True(t, sum.Equal(*r.TotalRefund))
}

func TestRunDueDrawsCancelsWhenNumberSourceFails(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	store, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)
	bet := seedBet(t, repos, draw.ID, 1, "10")
	pub := &recordingPublisher{}

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithNumberSource(failingNumber{}), WithPublisher(pub))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, res.ProcessedCount)
	assert.Equal(t, models.DrawStatusCancelled, res.Results[0].Status)
	assert.Contains(t, res.Results[0].Error, "boom")
	assert.Nil(t, res.Results[0].WinningNumber)

	stored, _ := repos.Draws.FindByID(ctx, draw.ID)
	assert.Equal(t, models.DrawStatusCancelled, stored.Status)
	assert.Nil(t, stored.WinningNumber)
	b, _ := repos.Bets.FindByID(ctx, bet.ID)
	assert.Equal(t, models.BetStatusPending, b.Status)
	assert.Empty(t, store.Transactions())
	assert.Equal(t, []string{EventDrawCancelled}, pub.events)

	again, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.ProcessedCount)
}

func TestRunDueDrawsCancelsWhenBetsCannotBeFetched(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)

	broken := repos
	broken.Bets = failingFind{repos.Bets}
	svc := NewSettlementService(broken, policy, clock.Fixed(now), WithNumberSource(fixedNumber(3)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCancelled, res.Results[0].Status)

	stored, _ := repos.Draws.FindByID(ctx, draw.ID)
	assert.Equal(t, models.DrawStatusCancelled, stored.Status)
	assert.Contains(t, stored.ErrorMessage, "fetch bets")
}

func TestRunDueDrawsIgnoresFutureDraws(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	store, repos := newMemory()
	now := pkt(t, policy, 13, 0)
	future := seedDraw(t, repos, pkt(t, policy, 14, 0))

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithNumberSource(fixedNumber(3)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ProcessedCount)
	assert.NotNil(t, res.Results)
	assert.Empty(t, res.Results)

	stored, _ := repos.Draws.FindByID(ctx, future.ID)
	assert.Equal(t, models.DrawStatusScheduled, stored.Status)
	assert.Empty(t, store.Transactions())
}

func TestRunDueDrawsIsolatesDraws(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 15, 0)
	first := seedDraw(t, repos, pkt(t, policy, 14, 0))
	second := seedDraw(t, repos, pkt(t, policy, 15, 0))
	seedBet(t, repos, second.ID, 9, "10")

	broken := repos
	broken.Draws = startFailsFor{repos.Draws, first.ID}
	svc := NewSettlementService(broken, policy, clock.Fixed(now), WithNumberSource(fixedNumber(9)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 2, res.ProcessedCount)

	byID := map[string]DrawResult{}
	for _, r := range res.Results {
		byID[r.DrawID] = r
	}
	assert.Equal(t, models.DrawStatusScheduled, byID[first.ID].Status)
	assert.Contains(t, byID[first.ID].Error, "start")
	assert.Equal(t, models.DrawStatusCompleted, byID[second.ID].Status)

	stored, _ := repos.Draws.FindByID(ctx, first.ID)
	assert.Equal(t, models.DrawStatusScheduled, stored.Status, "start failure leaves the draw for the next run")
}

type startFailsFor struct {
	repositories.DrawRepository
	id string
}

func (s startFailsFor) MarkInProgress(ctx context.Context, id string, at time.Time) error {
	if id == s.id {
		return errBoom
	}
	return s.DrawRepository.MarkInProgress(ctx, id, at)
}

func TestRunDueDrawsPartialBetFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)
	ok := seedBet(t, repos, draw.ID, 5, "10")
	bad := seedBet(t, repos, draw.ID, 6, "20")

	flaky := repos
	flaky.Bets = &flakyBets{BetRepository: repos.Bets, failFor: map[string]bool{bad.ID: true}}
	svc := NewSettlementService(flaky, policy, clock.Fixed(now), WithNumberSource(fixedNumber(5)))

	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	r := res.Results[0]
	assert.Equal(t, models.DrawStatusCompleted, r.Status)
	assert.Equal(t, 2, *r.TotalBets)
	assert.True(t, r.TotalStake.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, 1, r.ResolvedBets)
	require.Len(t, r.FailedBets, 1)
	assert.Equal(t, bad.ID, r.FailedBets[0].BetID)

	b, _ := repos.Bets.FindByID(ctx, ok.ID)
	assert.Equal(t, models.BetStatusWon, b.Status)
	b, _ = repos.Bets.FindByID(ctx, bad.ID)
	assert.Equal(t, models.BetStatusPending, b.Status)

	// Retry with a healthy store resolves the leftover bet only.
	retry := NewSettlementService(repos, policy, clock.Fixed(now.Add(time.Minute)))
	settled, err := retry.SettleDraw(ctx, draw.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, settled.ResolvedBets)
	assert.Empty(t, settled.FailedBets)

	b, _ = repos.Bets.FindByID(ctx, bad.ID)
	assert.Equal(t, models.BetStatusLost, b.Status)
	assert.True(t, b.RefundAmount.Equal(decimal.NewFromInt(4)))
	refunds, _ := repos.Refunds.FindByBetID(ctx, bad.ID)
	assert.Len(t, refunds, 1)
}

func TestSettleDrawRejectsUnsettledDraw(t *testing.T) {
	policy := testPolicy(t)
	_, repos := newMemory()
	draw := seedDraw(t, repos, pkt(t, policy, 14, 0))
	svc := NewSettlementService(repos, policy, clock.Fixed(pkt(t, policy, 13, 0)))

	_, err := svc.SettleDraw(context.Background(), draw.ID)
	assert.ErrorIs(t, err, ErrDrawNotSettleable)

	_, err = svc.SettleDraw(context.Background(), "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRunDueDrawsAuditFailureKeepsDrawCompleted(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)

	broken := repos
	broken.Transactions = failingTxn{}
	svc := NewSettlementService(broken, policy, clock.Fixed(now), WithNumberSource(fixedNumber(1)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, models.DrawStatusCompleted, res.Results[0].Status)
	assert.NotEmpty(t, res.Results[0].AuditError)

	stored, _ := repos.Draws.FindByID(ctx, draw.ID)
	assert.Equal(t, models.DrawStatusCompleted, stored.Status)
}

func TestRunDueDrawsRepositoryFailureAbortsInvocation(t *testing.T) {
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)

	broken := repos
	broken.Draws = failingDue{repos.Draws}
	svc := NewSettlementService(broken, policy, clock.Fixed(now))
	_, err := svc.RunDueDraws(context.Background(), now)
	var repoErr *RepositoryError
	assert.ErrorAs(t, err, &repoErr)
}

func TestRunDueDrawsSkipsDrawLockedElsewhere(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)

	locker := lock.NewLocal()
	_, err := locker.Acquire(ctx, drawLockKey(draw.ID))
	require.NoError(t, err)

	svc := NewSettlementService(repos, policy, clock.Fixed(now), WithLocker(locker), WithNumberSource(fixedNumber(1)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ProcessedCount)

	stored, _ := repos.Draws.FindByID(ctx, draw.ID)
	assert.Equal(t, models.DrawStatusScheduled, stored.Status)
}

func TestRunDueDrawsSkipsClaimedDraw(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	draw := seedDraw(t, repos, now)

	stale := repos
	stale.Draws = staleDue{repos.Draws, []*models.Draw{draw}}
	require.NoError(t, repos.Draws.MarkInProgress(ctx, draw.ID, now))

	svc := NewSettlementService(stale, policy, clock.Fixed(now), WithNumberSource(fixedNumber(1)))
	res, err := svc.RunDueDraws(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ProcessedCount)
}

type staleDue struct {
	repositories.DrawRepository
	due []*models.Draw
}

func (s staleDue) FindDue(context.Context, time.Time) ([]*models.Draw, error) {
	return s.due, nil
}

func TestRunDueDrawsRejectsFutureInstant(t *testing.T) {
	policy := testPolicy(t)
	_, repos := newMemory()
	now := pkt(t, policy, 14, 0)
	svc := NewSettlementService(repos, policy, clock.Fixed(now))

	_, err := svc.RunDueDraws(context.Background(), now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrFutureRun)
}

func TestCryptoNumberSourceRange(t *testing.T) {
	src := CryptoNumberSource{}
	for i := 0; i < 2000; i++ {
		n, err := src.Next()
		require.NoError(t, err)
		require.True(t, clock.ValidNumber(n), "got %d", n)
	}
}
