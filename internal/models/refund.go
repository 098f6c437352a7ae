package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Refund is the partial stake return issued for a losing bet
type Refund struct {
	ID        string          `bson:"_id" json:"id" gorm:"primaryKey;type:uuid"`
	BetID     string          `bson:"betId" json:"bet_id" gorm:"type:uuid;not null;uniqueIndex"`
	DealerID  string          `bson:"dealerId" json:"dealer_id" gorm:"not null;index"`
	Amount    decimal.Decimal `bson:"amount" json:"amount" gorm:"type:numeric(14,2);not null"`
	Notes     string          `bson:"notes" json:"notes"`
	CreatedAt time.Time       `bson:"createdAt" json:"created_at"`
}
