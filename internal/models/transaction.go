package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType labels an audit log entry
type TransactionType string

const (
	TransactionTypeDrawCompleted TransactionType = "draw_completed"
)

// Transaction is an append-only audit record
type Transaction struct {
	ID          string              `bson:"_id" json:"id"`
	Type        TransactionType     `bson:"type" json:"type"`
	Amount      decimal.Decimal     `bson:"amount" json:"amount"`
	Description string              `bson:"description" json:"description"`
	Metadata    TransactionMetadata `bson:"metadata" json:"metadata"`
	CreatedAt   time.Time           `bson:"createdAt" json:"created_at"`
}

// TransactionMetadata summarises a completed draw
type TransactionMetadata struct {
	DrawID        string          `bson:"drawId" json:"draw_id"`
	WinningNumber int             `bson:"winningNumber" json:"winning_number"`
	TotalBets     int             `bson:"totalBets" json:"total_bets"`
	WinningBets   int             `bson:"winningBets" json:"winning_bets"`
	TotalRefund   decimal.Decimal `bson:"totalRefund" json:"total_refund"`
}
