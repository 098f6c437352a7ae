package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BetStatus represents the status of a bet
type BetStatus string

const (
	BetStatusPending  BetStatus = "pending"
	BetStatusWon      BetStatus = "won"
	BetStatusLost     BetStatus = "lost"
	BetStatusRefunded BetStatus = "refunded"
)

// Bet is a wager placed by a dealer for a client against one draw
type Bet struct {
	ID           string           `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	DealerID     string           `bson:"dealerId" json:"dealer_id" gorm:"not null;index"`
	ClientName   string           `bson:"clientName" json:"client_name" gorm:"not null"`
	ClientPhone  string           `bson:"clientPhone,omitempty" json:"client_phone,omitempty"`
	DrawID       string           `bson:"drawId" json:"draw_id" gorm:"type:uuid;not null;index"`
	Number       int              `bson:"number" json:"number" gorm:"not null"`
	Stake        decimal.Decimal  `bson:"stake" json:"stake" gorm:"type:numeric(14,2);not null"`
	Status       BetStatus        `bson:"status" json:"status" gorm:"type:varchar(20);not null;index"`
	PotentialWin *decimal.Decimal `bson:"potentialWin,omitempty" json:"potential_win,omitempty" gorm:"type:numeric(16,2)"`
	RefundAmount *decimal.Decimal `bson:"refundAmount,omitempty" json:"refund_amount,omitempty" gorm:"type:numeric(14,2)"`
	CreatedAt    time.Time        `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time        `bson:"updatedAt" json:"updated_at"`
}

// BetCandidate is the unvalidated input for placing a bet.
// An empty DrawID targets the current open draw.
type BetCandidate struct {
	DealerID    string
	DrawID      string
	ClientName  string
	ClientPhone string
	Number      int
	Stake       decimal.Decimal
}

// BetFilter narrows bet listings. Zero-valued fields are ignored.
type BetFilter struct {
	DealerID string
	DrawID   string
	Status   BetStatus
}

// BetResolution is the settlement outcome of a single bet. A Refund is set
// only for losing bets and must be persisted together with the bet update.
type BetResolution struct {
	BetID        string
	Status       BetStatus
	PotentialWin *decimal.Decimal
	RefundAmount *decimal.Decimal
	Refund       *Refund
	ResolvedAt   time.Time
}

// DealerStats summarises a dealer's betting history
type DealerStats struct {
	DealerID          string          `json:"dealer_id"`
	TotalBets         int             `json:"total_bets"`
	TotalStake        decimal.Decimal `json:"total_stake"`
	PendingBets       int             `json:"pending_bets"`
	WonBets           int             `json:"won_bets"`
	LostBets          int             `json:"lost_bets"`
	TotalPotentialWin decimal.Decimal `json:"total_potential_win"`
	TotalRefund       decimal.Decimal `json:"total_refund"`
}
