package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

func TestValidateAndPrepareBet(t *testing.T) {
	policy := testPolicy(t)
	draw := &models.Draw{ID: "d1", ScheduledAt: pkt(t, policy, 14, 0), Status: models.DrawStatusScheduled}
	closed := &models.Draw{ID: "d2", ScheduledAt: pkt(t, policy, 14, 0), Status: models.DrawStatusInProgress}
	open := pkt(t, policy, 13, 44)

	valid := models.BetCandidate{DealerID: "dealer-1", ClientName: "  Ayesha ", Number: 42, Stake: decimal.NewFromInt(100)}

	tests := []struct {
		name      string
		candidate func() models.BetCandidate
		draw      *models.Draw
		at        int
		want      RejectionReason
	}{
		{name: "missing draw", draw: nil, want: RejectDrawNotOpen},
		{name: "draw already started", draw: closed, want: RejectDrawNotOpen},
		{name: "after cutoff", draw: draw, at: 46, want: RejectBettingClosed},
		{name: "exactly at cutoff", draw: draw, at: 45, want: RejectBettingClosed},
		{name: "number too high", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Number = 1000; return c }, want: RejectNumberOutOfRange},
		{name: "negative number", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Number = -1; return c }, want: RejectNumberOutOfRange},
		{name: "zero stake", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Stake = decimal.Zero; return c }, want: RejectStakeOutOfBounds},
		{name: "stake with sub-cent precision", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Stake = decimal.RequireFromString("0.001"); return c }, want: RejectStakeOutOfBounds},
		{name: "stake with three decimal places", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Stake = decimal.RequireFromString("10.125"); return c }, want: RejectStakeOutOfBounds},
		{name: "stake over max", draw: draw, candidate: func() models.BetCandidate { c := valid; c.Stake = decimal.NewFromInt(100001); return c }, want: RejectStakeOutOfBounds},
		{name: "blank client", draw: draw, candidate: func() models.BetCandidate { c := valid; c.ClientName = "   "; return c }, want: RejectInvalidClient},
		{name: "cutoff checked before number", draw: draw, at: 50, candidate: func() models.BetCandidate { c := valid; c.Number = 5000; return c }, want: RejectBettingClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			if tt.candidate != nil {
				c = tt.candidate()
			}
			now := open
			if tt.at != 0 {
				now = pkt(t, policy, 13, tt.at)
			}
			bet, err := ValidateAndPrepareBet(policy, c, tt.draw, now)
			assert.Nil(t, bet)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.want, verr.Reason)
		})
	}

	t.Run("accepted", func(t *testing.T) {
		bet, err := ValidateAndPrepareBet(policy, valid, draw, open)
		require.NoError(t, err)
		assert.Equal(t, "Ayesha", bet.ClientName)
		assert.Equal(t, models.BetStatusPending, bet.Status)
		assert.Equal(t, "d1", bet.DrawID)
		assert.True(t, bet.CreatedAt.Equal(open))
		assert.NotEmpty(t, bet.ID)
	})

	t.Run("trailing zeros beyond cents are allowed", func(t *testing.T) {
		c := valid
		c.Stake = decimal.RequireFromString("0.030")
		_, err := ValidateAndPrepareBet(policy, c, draw, open)
		assert.NoError(t, err)
	})

	t.Run("max stake is allowed", func(t *testing.T) {
		c := valid
		c.Stake = decimal.NewFromInt(100000)
		_, err := ValidateAndPrepareBet(policy, c, draw, open)
		assert.NoError(t, err)
	})
}

func TestPlaceBetCutoffBoundary(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	draw := seedDraw(t, repos, pkt(t, policy, 14, 0))
	candidate := models.BetCandidate{DealerID: "dealer-1", DrawID: draw.ID, ClientName: "Bilal", Number: 7, Stake: decimal.NewFromInt(50)}

	early := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 44)))
	res, err := early.PlaceBet(ctx, candidate)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	require.NotNil(t, res.Bet)

	late := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 46)))
	res, err = late.PlaceBet(ctx, candidate)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectBettingClosed, res.RejectionReason)

	bets, err := repos.Bets.Find(ctx, models.BetFilter{DrawID: draw.ID})
	require.NoError(t, err)
	assert.Len(t, bets, 1)
}

func TestPlaceBetTargetsCurrentDrawWhenUnspecified(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	seedDraw(t, repos, pkt(t, policy, 15, 0))
	current := seedDraw(t, repos, pkt(t, policy, 14, 0))
	svc := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 10)))

	res, err := svc.PlaceBet(ctx, models.BetCandidate{DealerID: "dealer-1", ClientName: "Sana", Number: 1, Stake: decimal.NewFromInt(10)})
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Equal(t, current.ID, res.Bet.DrawID)
}

func TestPlaceBetNoDrawRejected(t *testing.T) {
	policy := testPolicy(t)
	_, repos := newMemory()
	svc := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 10)))

	res, err := svc.PlaceBet(context.Background(), models.BetCandidate{DealerID: "dealer-1", DrawID: "nope", ClientName: "Sana", Number: 1, Stake: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectDrawNotOpen, res.RejectionReason)
}

func TestPlaceBetRequiresDealer(t *testing.T) {
	policy := testPolicy(t)
	_, repos := newMemory()
	svc := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 10)))

	_, err := svc.PlaceBet(context.Background(), models.BetCandidate{ClientName: "x", Number: 1, Stake: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrDealerRequired)
}

// raceDraws reports the draw as scheduled while the store has already moved it on.
type raceDraws struct {
	repositories.DrawRepository
	snapshot *models.Draw
}

func (r raceDraws) FindByID(context.Context, string) (*models.Draw, error) {
	c := *r.snapshot
	return &c, nil
}

func TestPlaceBetRecheckedAtInsert(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	draw := seedDraw(t, repos, pkt(t, policy, 14, 0))
	snapshot := *draw
	require.NoError(t, repos.Draws.MarkInProgress(ctx, draw.ID, pkt(t, policy, 13, 0)))

	svc := NewBetService(raceDraws{repos.Draws, &snapshot}, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 13, 10)))
	res, err := svc.PlaceBet(ctx, models.BetCandidate{DealerID: "dealer-1", DrawID: draw.ID, ClientName: "Sana", Number: 1, Stake: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, RejectDrawNotOpen, res.RejectionReason)
}

func TestDealerStatsAndRefundQueries(t *testing.T) {
	ctx := context.Background()
	policy := testPolicy(t)
	_, repos := newMemory()
	draw := seedDraw(t, repos, pkt(t, policy, 14, 0))
	win := seedBet(t, repos, draw.ID, 42, "100")
	lose := seedBet(t, repos, draw.ID, 7, "200")
	seedBet(t, repos, draw.ID, 8, "5.5")

	winAmount := decimal.NewFromInt(90000)
	refund := decimal.NewFromInt(40)
	require.NoError(t, repos.Bets.Resolve(ctx, models.BetResolution{BetID: win.ID, Status: models.BetStatusWon, PotentialWin: &winAmount}))
	require.NoError(t, repos.Bets.Resolve(ctx, models.BetResolution{
		BetID: lose.ID, Status: models.BetStatusLost, RefundAmount: &refund,
		Refund: &models.Refund{BetID: lose.ID, DealerID: "dealer-1", Amount: refund},
	}))

	svc := NewBetService(repos.Draws, repos.Bets, repos.Refunds, policy, clock.Fixed(pkt(t, policy, 14, 5)))
	stats, err := svc.DealerStats(ctx, "dealer-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalBets)
	assert.Equal(t, 1, stats.WonBets)
	assert.Equal(t, 1, stats.LostBets)
	assert.Equal(t, 1, stats.PendingBets)
	assert.True(t, stats.TotalStake.Equal(decimal.RequireFromString("305.5")))
	assert.True(t, stats.TotalPotentialWin.Equal(winAmount))
	assert.True(t, stats.TotalRefund.Equal(refund))

	refunds, err := svc.RefundsByBet(ctx, lose.ID, "dealer-1")
	require.NoError(t, err)
	assert.Len(t, refunds, 1)

	_, err = svc.RefundsByBet(ctx, lose.ID, "someone-else")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	byDealer, err := svc.RefundsByDealer(ctx, "dealer-1")
	require.NoError(t, err)
	assert.Len(t, byDealer, 1)
}
