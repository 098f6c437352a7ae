package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
	"github.com/inzamam-virk/lottery-app/internal/repositories/memory"
)

var errBoom = errors.New("boom")

func testPolicy(t *testing.T) *clock.Policy {
	t.Helper()
	p, err := clock.NewPolicy("Asia/Karachi", 15, decimal.NewFromInt(900), decimal.NewFromInt(20), decimal.NewFromInt(100000))
	require.NoError(t, err)
	return p
}

func pkt(t *testing.T, p *clock.Policy, hour, min int) time.Time {
	t.Helper()
	return time.Date(2024, 3, 10, hour, min, 0, 0, p.Location)
}

type fixedNumber int

func (n fixedNumber) Next() (int, error) { return int(n), nil }

type failingNumber struct{}

func (failingNumber) Next() (int, error) { return 0, errBoom }

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func seedDraw(t *testing.T, repos repositories.Store, at time.Time) *models.Draw {
	t.Helper()
	d := &models.Draw{ScheduledAt: at.UTC(), Status: models.DrawStatusScheduled}
	require.NoError(t, repos.Draws.Create(context.Background(), d))
	return d
}

func seedBet(t *testing.T, repos repositories.Store, drawID string, number int, stake string) *models.Bet {
	t.Helper()
	b := &models.Bet{
		DealerID:   "dealer-1",
		ClientName: "Client",
		DrawID:     drawID,
		Number:     number,
		Stake:      decimal.RequireFromString(stake),
		Status:     models.BetStatusPending,
	}
	require.NoError(t, repos.Bets.Create(context.Background(), b))
	return b
}

// flakyBets fails Resolve for the listed bet ids.
type flakyBets struct {
	repositories.BetRepository
	failFor map[string]bool
}

func (f *flakyBets) Resolve(ctx context.Context, res models.BetResolution) error {
	if f.failFor[res.BetID] {
		return errBoom
	}
	return f.BetRepository.Resolve(ctx, res)
}

// failingFind fails every bet listing.
type failingFind struct {
	repositories.BetRepository
}

func (failingFind) Find(context.Context, models.BetFilter) ([]*models.Bet, error) {
	return nil, errBoom
}

// failingStart fails MarkInProgress with a non-conflict error.
type failingStart struct {
	repositories.DrawRepository
}

func (failingStart) MarkInProgress(context.Context, string, time.Time) error {
	return errBoom
}

// failingDue fails listing due draws.
type failingDue struct {
	repositories.DrawRepository
}

func (failingDue) FindDue(context.Context, time.Time) ([]*models.Draw, error) {
	return nil, errBoom
}

// failingTxn fails audit writes.
type failingTxn struct{}

func (failingTxn) Create(context.Context, *models.Transaction) error { return errBoom }

func newMemory() (*memory.Store, repositories.Store) {
	store := memory.NewStore()
	return store, store.Repositories()
}
