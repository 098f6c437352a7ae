package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"github.com/inzamam-virk/lottery-app/internal/clock"
	"github.com/inzamam-virk/lottery-app/internal/models"
	"github.com/inzamam-virk/lottery-app/internal/repositories"
)

// Compile-time check to ensure DrawServiceImpl implements DrawService
var _ DrawService = (*DrawServiceImpl)(nil)

const defaultListLimit = 50

// DrawServiceImpl schedules hourly draws and serves draw queries
type DrawServiceImpl struct {
	drawRepo  repositories.DrawRepository
	policy    *clock.Policy
	clock     clock.Clock
	publisher Publisher
}

// NewDrawService creates a new DrawServiceImpl. publisher may be nil.
func NewDrawService(drawRepo repositories.DrawRepository, policy *clock.Policy, clk clock.Clock, publisher Publisher) *DrawServiceImpl {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &DrawServiceImpl{
		drawRepo:  drawRepo,
		policy:    policy,
		clock:     clk,
		publisher: publisher,
	}
}

// ScheduleNextDraw creates the draw for the next local hour if none exists.
// Repeated or concurrent calls for the same slot create at most one draw:
// the store rejects a second scheduled draw for a slot and that rejection
// is reported as Created=false.
func (s *DrawServiceImpl) ScheduleNextDraw(ctx context.Context) (*ScheduleResult, error) {
	now := s.clock.Now()
	slot := s.policy.NextHourBoundary(now)

	existing, err := s.drawRepo.FindScheduledAt(ctx, slot)
	if err == nil {
		slog.Debug("Draw already scheduled for slot", "slot", slot, "drawId", existing.ID)
		return &ScheduleResult{Created: false, ScheduledAt: slot, Draw: existing}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		slog.Error("Failed to check for existing draw", "error", err, "slot", slot)
		return nil, repoErr("check existing draw", err)
	}

	draw := &models.Draw{
		ID:          uuid.NewString(),
		ScheduledAt: slot,
		Status:      models.DrawStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.drawRepo.Create(ctx, draw); err != nil {
		if errors.Is(err, repositories.ErrDuplicateSlot) {
			slog.Info("Slot scheduled concurrently", "slot", slot)
			return &ScheduleResult{Created: false, ScheduledAt: slot}, nil
		}
		slog.Error("Failed to create draw", "error", err, "slot", slot)
		return nil, repoErr("create draw", err)
	}

	slog.Info("Draw scheduled", "drawId", draw.ID, "slot", slot, "local", slot.In(s.policy.Location).Format("2006-01-02 15:04"))
	s.publisher.Publish(EventDrawScheduled, draw)
	return &ScheduleResult{Created: true, ScheduledAt: slot, Draw: draw}, nil
}

func (s *DrawServiceImpl) CurrentDraw(ctx context.Context) (*models.Draw, error) {
	draws, err := s.drawRepo.FindUpcoming(ctx, s.clock.Now(), 1)
	if err != nil {
		return nil, repoErr("find current draw", err)
	}
	if len(draws) == 0 {
		return nil, fmt.Errorf("no upcoming draw: %w", repositories.ErrNotFound)
	}
	return draws[0], nil
}

func (s *DrawServiceImpl) UpcomingDraws(ctx context.Context, limit int) ([]*models.Draw, error) {
	draws, err := s.drawRepo.FindUpcoming(ctx, s.clock.Now(), normalizeLimit(limit))
	if err != nil {
		return nil, repoErr("find upcoming draws", err)
	}
	return draws, nil
}

func (s *DrawServiceImpl) CompletedDraws(ctx context.Context, limit int) ([]*models.Draw, error) {
	draws, err := s.drawRepo.FindByStatus(ctx, models.DrawStatusCompleted, normalizeLimit(limit))
	if err != nil {
		return nil, repoErr("find completed draws", err)
	}
	return draws, nil
}

func (s *DrawServiceImpl) GetDraw(ctx context.Context, id string) (*models.Draw, error) {
	draw, err := s.drawRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, err
		}
		return nil, repoErr("find draw", err)
	}
	return draw, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
