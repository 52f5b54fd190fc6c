package core

import (
	"errors"
	"fmt"
	"time"
)

const (
	In  Direction = "in"
	Out Direction = "out"
)

type (
	// Direction tags which way a transaction moves money: "in" credits the
	// account, "out" debits it.
	Direction string

	// Transaction is a single ledger entry. Immutable once persisted; Amount
	// is always the magnitude, the sign lives in Type.
	Transaction struct {
		ID        string
		UID       string
		AccountID string
		Amount    float64
		Type      Direction
		Category  string // empty means no category
		Date      time.Time
		CreatedAt time.Time
	}

	// Account is the running balance aggregate keyed by (AccountID, UID).
	// Created implicitly by the first balance upsert that references it.
	Account struct {
		AccountID string
		UID       string
		Balance   float64
		UpdatedAt time.Time
	}

	// MonthlySummary is the per-owner, per-month income/expense aggregate,
	// keyed by (UID, Month).
	MonthlySummary struct {
		UID           string
		Month         string // "YYYY-MM"
		Income        float64
		Expense       float64
		TxCount       int64
		ByCategoryIn  map[string]float64
		ByCategoryOut map[string]float64
		UpdatedAt     time.Time
	}
)

// ErrInvalidInput reports a structurally or semantically invalid transaction
// request.
var ErrInvalidInput = errors.New("invalid input")

// Valid reports whether d is one of the two recognized direction tokens.
func (d Direction) Valid() bool {
	return d == In || d == Out
}

// Signed applies the direction's sign to a magnitude, yielding the delta the
// transaction contributes to an account balance.
func (d Direction) Signed(magnitude float64) float64 {
	if d == In {
		return magnitude
	}
	return -magnitude
}

// MonthKey buckets an effective date into its "YYYY-MM" summary key.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
