package services

import (
	"errors"
	"fmt"
)

// RejectionReason explains why a bet was not accepted
type RejectionReason string

const (
	RejectDrawNotOpen      RejectionReason = "DrawNotOpen"
	RejectBettingClosed    RejectionReason = "BettingClosed"
	RejectNumberOutOfRange RejectionReason = "NumberOutOfRange"
	RejectStakeOutOfBounds RejectionReason = "StakeOutOfBounds"
	RejectInvalidClient    RejectionReason = "InvalidClient"
)

var (
	// ErrDrawNotSettleable is returned when a settle retry targets a draw that is not completed.
	ErrDrawNotSettleable = errors.New("only completed draws can be re-settled")
	// ErrDealerRequired is returned when a bet arrives without a dealer identity.
	ErrDealerRequired = errors.New("dealer id is required")
	// ErrFutureRun is returned when runDraws is asked to settle ahead of the clock.
	ErrFutureRun = errors.New("cannot run draws for an instant in the future")
)

// ValidationError is a synchronous bet rejection. No state was changed.
type ValidationError struct {
	Reason  RejectionReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func reject(reason RejectionReason, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// SettlementError describes why a single draw could not be settled.
type SettlementError struct {
	DrawID string
	Stage  string
	Err    error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("draw %s: %s: %v", e.DrawID, e.Stage, e.Err)
}

func (e *SettlementError) Unwrap() error { return e.Err }

// RepositoryError is a record store failure surfaced to the caller.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

func repoErr(op string, err error) error {
	return &RepositoryError{Op: op, Err: err}
}
