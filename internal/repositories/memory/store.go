// Package memory is a mutex-guarded record store implementing the
// repositories contracts. It backs the memory driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// Store holds every record in process memory.
type Store struct {
	mu           sync.RWMutex
	draws        map[string]*models.Draw
	bets         map[string]*models.Bet
	refunds      map[string]*models.Refund
	transactions []*models.Transaction
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		draws:   make(map[string]*models.Draw),
		bets:    make(map[string]*models.Bet),
		refunds: make(map[string]*models.Refund),
	}
}

// Repositories exposes the store through the repository interfaces.
func (s *Store) Repositories() repositories.Store {
	return repositories.Store{
		Draws:        &DrawRepository{s},
		Bets:         &BetRepository{s},
		Refunds:      &RefundRepository{s},
		Transactions: &TransactionRepository{s},
	}
}

// Transactions returns a copy of the audit log.
func (s *Store) Transactions() []*models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		c := *t
		out = append(out, &c)
	}
	return out
}

// Refunds returns a copy of every refund.
func (s *Store) Refunds() []*models.Refund {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Refund, 0, len(s.refunds))
	for _, r := range s.refunds {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// DrawRepository implements repositories.DrawRepository
type DrawRepository struct{ s *Store }

func (r *DrawRepository) Create(ctx context.Context, draw *models.Draw) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.draws {
		if d.Status == models.DrawStatusScheduled && d.ScheduledAt.Equal(draw.ScheduledAt) {
			return repositories.ErrDuplicateSlot
		}
	}
	if draw.ID == "" {
		draw.ID = uuid.NewString()
	}
	if draw.CreatedAt.IsZero() {
		draw.CreatedAt = time.Now()
	}
	draw.UpdatedAt = draw.CreatedAt
	c := *draw
	r.s.draws[draw.ID] = &c
	return nil
}

func (r *DrawRepository) FindByID(ctx context.Context, id string) (*models.Draw, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.draws[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *d
	return &c, nil
}

func (r *DrawRepository) FindScheduledAt(ctx context.Context, scheduledAt time.Time) (*models.Draw, error) {
	draws := r.collect(func(d *models.Draw) bool {
		return d.Status == models.DrawStatusScheduled && d.ScheduledAt.Equal(scheduledAt)
	}, true, 1)
	if len(draws) == 0 {
		return nil, repositories.ErrNotFound
	}
	return draws[0], nil
}

func (r *DrawRepository) FindDue(ctx context.Context, now time.Time) ([]*models.Draw, error) {
	return r.collect(func(d *models.Draw) bool {
		return d.Status == models.DrawStatusScheduled && !d.ScheduledAt.After(now)
	}, true, 0), nil
}

func (r *DrawRepository) FindUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Draw, error) {
	return r.collect(func(d *models.Draw) bool {
		return d.Status == models.DrawStatusScheduled && !d.ScheduledAt.Before(now)
	}, true, limit), nil
}

func (r *DrawRepository) FindByStatus(ctx context.Context, status models.DrawStatus, limit int) ([]*models.Draw, error) {
	return r.collect(func(d *models.Draw) bool { return d.Status == status }, false, limit), nil
}

func (r *DrawRepository) MarkInProgress(ctx context.Context, id string, startedAt time.Time) error {
	return r.transition(id, []models.DrawStatus{models.DrawStatusScheduled}, func(d *models.Draw) {
		d.Status = models.DrawStatusInProgress
		d.StartedAt = &startedAt
	})
}

func (r *DrawRepository) Complete(ctx context.Context, id string, outcome models.DrawOutcome) error {
	return r.transition(id, []models.DrawStatus{models.DrawStatusInProgress}, func(d *models.Draw) {
		finished := outcome.FinishedAt
		number := outcome.WinningNumber
		d.Status = models.DrawStatusCompleted
		d.FinishedAt = &finished
		d.WinningNumber = &number
		d.TotalBets = outcome.TotalBets
		d.TotalStake = outcome.TotalStake
		d.WinningBets = outcome.WinningBets
		d.TotalRefund = outcome.TotalRefund
	})
}

func (r *DrawRepository) Cancel(ctx context.Context, id string, reason string, at time.Time) error {
	return r.transition(id, []models.DrawStatus{models.DrawStatusScheduled, models.DrawStatusInProgress}, func(d *models.Draw) {
		d.Status = models.DrawStatusCancelled
		d.FinishedAt = &at
		d.ErrorMessage = reason
	})
}

func (r *DrawRepository) transition(id string, from []models.DrawStatus, apply func(*models.Draw)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.draws[id]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, status := range from {
		if d.Status == status {
			apply(d)
			d.UpdatedAt = time.Now()
			return nil
		}
	}
	return repositories.ErrStatusConflict
}

func (r *DrawRepository) collect(match func(*models.Draw) bool, ascending bool, limit int) []*models.Draw {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Draw{}
	for _, d := range r.s.draws {
		if match(d) {
			c := *d
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].ScheduledAt.Before(out[j].ScheduledAt)
		}
		return out[i].ScheduledAt.After(out[j].ScheduledAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// BetRepository implements repositories.BetRepository
type BetRepository struct{ s *Store }

func (r *BetRepository) Create(ctx context.Context, bet *models.Bet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.draws[bet.DrawID]
	if !ok || d.Status != models.DrawStatusScheduled {
		return repositories.ErrDrawNotOpen
	}
	if bet.ID == "" {
		bet.ID = uuid.NewString()
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = time.Now()
	}
	bet.UpdatedAt = bet.CreatedAt
	c := *bet
	r.s.bets[bet.ID] = &c
	return nil
}

func (r *BetRepository) FindByID(ctx context.Context, id string) (*models.Bet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *b
	return &c, nil
}

func (r *BetRepository) Find(ctx context.Context, filter models.BetFilter) ([]*models.Bet, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Bet{}
	for _, b := range r.s.bets {
		if filter.DealerID != "" && b.DealerID != filter.DealerID {
			continue
		}
		if filter.DrawID != "" && b.DrawID != filter.DrawID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *BetRepository) Resolve(ctx context.Context, res models.BetResolution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bets[res.BetID]
	if !ok {
		return repositories.ErrNotFound
	}
	if b.Status != models.BetStatusPending {
		return repositories.ErrBetAlreadyResolved
	}
	b.Status = res.Status
	b.PotentialWin = res.PotentialWin
	b.RefundAmount = res.RefundAmount
	b.UpdatedAt = res.ResolvedAt
	if res.Refund != nil {
		refund := *res.Refund
		if refund.ID == "" {
			refund.ID = uuid.NewString()
		}
		r.s.refunds[refund.ID] = &refund
	}
	return nil
}

// RefundRepository implements repositories.RefundRepository
type RefundRepository struct{ s *Store }

func (r *RefundRepository) FindByBetID(ctx context.Context, betID string) ([]*models.Refund, error) {
	return r.find(func(rf *models.Refund) bool { return rf.BetID == betID }), nil
}

func (r *RefundRepository) FindByDealerID(ctx context.Context, dealerID string) ([]*models.Refund, error) {
	return r.find(func(rf *models.Refund) bool { return rf.DealerID == dealerID }), nil
}

func (r *RefundRepository) find(match func(*models.Refund) bool) []*models.Refund {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*models.Refund{}
	for _, rf := range r.s.refunds {
		if match(rf) {
			c := *rf
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// TransactionRepository implements repositories.TransactionRepository
type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	c := *txn
	r.s.transactions = append(r.s.transactions, &c)
	return nil
}
