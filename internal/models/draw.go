package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DrawStatus represents the status of a draw
type DrawStatus string

const (
	DrawStatusScheduled  DrawStatus = "scheduled"
	DrawStatusInProgress DrawStatus = "in_progress"
	DrawStatusCompleted  DrawStatus = "completed"
	DrawStatusCancelled  DrawStatus = "cancelled"
)

// IsTerminal reports whether a draw in this status can no longer change.
func (s DrawStatus) IsTerminal() bool {
	return s == DrawStatusCompleted || s == DrawStatusCancelled
}

// Draw represents one hourly lottery round
type Draw struct {
	ID            string          `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	ScheduledAt   time.Time       `bson:"scheduledAt" json:"scheduled_at" gorm:"not null"`
	StartedAt     *time.Time      `bson:"startedAt,omitempty" json:"started_at,omitempty"`
	FinishedAt    *time.Time      `bson:"finishedAt,omitempty" json:"finished_at,omitempty"`
	WinningNumber *int            `bson:"winningNumber,omitempty" json:"winning_number,omitempty"`
	Status        DrawStatus      `bson:"status" json:"status" gorm:"type:varchar(20);not null;index"`
	TotalBets     int             `bson:"totalBets" json:"total_bets" gorm:"not null;default:0"`
	TotalStake    decimal.Decimal `bson:"totalStake" json:"total_stake" gorm:"type:numeric(14,2);not null;default:0"`
	WinningBets   int             `bson:"winningBets" json:"winning_bets" gorm:"not null;default:0"`
	TotalRefund   decimal.Decimal `bson:"totalRefund" json:"total_refund" gorm:"type:numeric(14,2);not null;default:0"`
	ErrorMessage  string          `bson:"errorMessage,omitempty" json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt     time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updatedAt" json:"updated_at"`
}

// DrawOutcome is the aggregate written when a draw completes.
type DrawOutcome struct {
	FinishedAt    time.Time
	WinningNumber int
	TotalBets     int
	TotalStake    decimal.Decimal
	WinningBets   int
	TotalRefund   decimal.Decimal
}
