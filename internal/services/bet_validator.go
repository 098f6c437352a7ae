package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
)

// ValidateAndPrepareBet checks a candidate against its target draw and
// returns the pending bet to insert, or a *ValidationError. Checks run in a
// fixed order and the first failure wins. It has no side effects.
func ValidateAndPrepareBet(policy *clock.Policy, candidate models.BetCandidate, draw *models.Draw, now time.Time) (*models.Bet, error) {
	if draw == nil || draw.Status != models.DrawStatusScheduled {
		return nil, reject(RejectDrawNotOpen, "draw is not open for betting")
	}
	if !policy.IsBettingOpen(draw.ScheduledAt, now) {
		return nil, reject(RejectBettingClosed, "betting closed at %s", policy.CutoffInstant(draw.ScheduledAt).In(policy.Location).Format(time.RFC3339))
	}
	if !clock.ValidNumber(candidate.Number) {
		return nil, reject(RejectNumberOutOfRange, "number must be between %d and %d", clock.MinNumber, clock.MaxNumber)
	}
	if !policy.ValidStake(candidate.Stake) {
		return nil, reject(RejectStakeOutOfBounds, "stake must be greater than 0, at most %s and have at most %d decimal places", policy.MaxStake.String(), clock.MoneyPlaces)
	}
	clientName := strings.TrimSpace(candidate.ClientName)
	if clientName == "" {
		return nil, reject(RejectInvalidClient, "client name is required")
	}

	return &models.Bet{
		ID:          uuid.NewString(),
		DealerID:    candidate.DealerID,
		ClientName:  clientName,
		ClientPhone: strings.TrimSpace(candidate.ClientPhone),
		DrawID:      draw.ID,
		Number:      candidate.Number,
		Stake:       candidate.Stake,
		Status:      models.BetStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
