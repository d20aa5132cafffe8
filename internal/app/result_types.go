package app

import (
	"time"

	"github.com/shopspring/decimal"

	"pos-terminal/internal/core"
	"pos-terminal/internal/pos"
)

// SessionResult is returned by every session operation.
// OperatorID is the operator that opened the session.
type SessionResult struct {
	SessionID  string       `json:"session_id"`
	OperatorID int          `json:"operator_id"`
	Snapshot   pos.Snapshot `json:"snapshot"`
}

// RateResult is returned by CurrentRate. Overridden is true when the rate
// comes from configuration rather than the published rates.
type RateResult struct {
	Rate       decimal.Decimal `json:"rate"`
	Date       time.Time       `json:"date"`
	Overridden bool            `json:"overridden"`
}

// OperatorSession is returned by AuthenticateOperator and GetOperator.
type OperatorSession struct {
	OperatorID int    `json:"operator_id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
}

// CustomerHistory is a customer's purchase history, newest sale first.
// BalanceDue sums what the customer still owes on pending credit sales.
type CustomerHistory struct {
	Customer   core.Customer   `json:"customer"`
	Sales      []core.Sale     `json:"sales"`
	BalanceDue decimal.Decimal `json:"balance_due"`
}
