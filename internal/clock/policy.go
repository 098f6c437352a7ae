package clock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	MinNumber = 0
	MaxNumber = 999

	// MoneyPlaces is the scale every stored amount is kept at.
	MoneyPlaces = 2
)

// Policy holds the lottery time and payout rules. All slot computations are
// done in Location; instants are compared in absolute time.
type Policy struct {
	Location       *time.Location
	Cutoff         time.Duration
	WinMultiplier  decimal.Decimal
	RefundFraction decimal.Decimal
	MaxStake       decimal.Decimal
}

// NewPolicy builds a Policy from its configured parts.
func NewPolicy(timezone string, cutoffMinutes int, winMultiplier, refundPercent, maxStake decimal.Decimal) (*Policy, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	if cutoffMinutes < 0 {
		return nil, fmt.Errorf("cutoff must not be negative, got %d", cutoffMinutes)
	}
	return &Policy{
		Location:       loc,
		Cutoff:         time.Duration(cutoffMinutes) * time.Minute,
		WinMultiplier:  winMultiplier,
		RefundFraction: refundPercent.Div(decimal.NewFromInt(100)),
		MaxStake:       maxStake,
	}, nil
}

// NextHourBoundary returns the start of the next full local hour strictly
// after now, as a UTC instant.
func (p *Policy) NextHourBoundary(now time.Time) time.Time {
	local := now.In(p.Location)
	// Step from the current hour start in absolute time so a repeated
	// wall-clock hour after a backward DST shift still gets its slot.
	sinceHour := time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second +
		time.Duration(local.Nanosecond())
	next := local.Add(-sinceHour).Add(time.Hour)
	for !next.After(now) {
		next = next.Add(time.Hour)
	}
	return next.UTC()
}

// CutoffInstant is the last instant (exclusive) at which bets are accepted.
func (p *Policy) CutoffInstant(scheduledAt time.Time) time.Time {
	return scheduledAt.Add(-p.Cutoff)
}

// IsBettingOpen reports whether now is strictly before the cutoff.
func (p *Policy) IsBettingOpen(scheduledAt, now time.Time) bool {
	return now.Before(p.CutoffInstant(scheduledAt))
}

// PotentialWin is the payout for a winning stake.
func (p *Policy) PotentialWin(stake decimal.Decimal) decimal.Decimal {
	return stake.Mul(p.WinMultiplier).Round(MoneyPlaces)
}

// RefundAmount is the partial return for a losing stake.
func (p *Policy) RefundAmount(stake decimal.Decimal) decimal.Decimal {
	return stake.Mul(p.RefundFraction).Round(MoneyPlaces)
}

// ValidStake reports whether stake is positive, within MaxStake and carries
// no more than MoneyPlaces decimal places.
func (p *Policy) ValidStake(stake decimal.Decimal) bool {
	return stake.IsPositive() && !stake.GreaterThan(p.MaxStake) && stake.Equal(stake.Round(MoneyPlaces))
}

// ValidNumber reports whether n is a playable number.
func ValidNumber(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}
