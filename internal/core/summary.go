package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Aggregate folds one transaction into its monthly summary. The prior summary
// may be nil, in which case an empty summary for the transaction's owner and
// month bucket is used. Pure: the prior value is never mutated, category maps
// are copied before being extended.
func Aggregate(prior *MonthlySummary, tx Transaction, now time.Time) MonthlySummary {
	next := MonthlySummary{
		UID:           tx.UID,
		Month:         MonthKey(tx.Date),
		ByCategoryIn:  map[string]float64{},
		ByCategoryOut: map[string]float64{},
	}
	if prior != nil {
		next.UID = prior.UID
		next.Month = prior.Month
		next.Income = prior.Income
		next.Expense = prior.Expense
		next.TxCount = prior.TxCount
		for k, v := range prior.ByCategoryIn {
			next.ByCategoryIn[k] = v
		}
		for k, v := range prior.ByCategoryOut {
			next.ByCategoryOut[k] = v
		}
	}

	amount := decimal.NewFromFloat(tx.Amount)
	switch tx.Type {
	case In:
		next.Income = add(next.Income, amount)
		if tx.Category != "" {
			next.ByCategoryIn[tx.Category] = add(next.ByCategoryIn[tx.Category], amount)
		}
	case Out:
		next.Expense = add(next.Expense, amount)
		if tx.Category != "" {
			next.ByCategoryOut[tx.Category] = add(next.ByCategoryOut[tx.Category], amount)
		}
	}
	next.TxCount++
	next.UpdatedAt = now

	return next
}

// add performs the running-total addition in decimal space so that repeated
// float64 additions do not accumulate binary rounding drift.
func add(total float64, amount decimal.Decimal) float64 {
	return decimal.NewFromFloat(total).Add(amount).InexactFloat64()
}
