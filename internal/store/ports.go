// Package store defines the persistence capability set the ledger writer
// depends on: document insert, point lookup, and atomic upsert-with-increment.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/FernandoChao/moneyzen-api/internal/core"
)

// ErrUnavailable wraps any failure of the underlying persistence layer,
// including per-operation timeouts.
var ErrUnavailable = errors.New("store unavailable")

// Store is implemented by every ledger backend. Implementations must be safe
// for concurrent use; the only per-call atomicity guarantee required is the
// balance increment in ApplyBalanceDelta.
type Store interface {
	// InsertTransaction persists a new transaction document and returns its
	// generated id.
	InsertTransaction(ctx context.Context, tx core.Transaction) (string, error)

	// GetTransaction returns a previously inserted transaction by id.
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)

	// ApplyBalanceDelta atomically increments the balance of the account
	// keyed by (accountID, uid). If no account document exists one is created
	// seeded at zero before the increment is applied.
	ApplyBalanceDelta(ctx context.Context, accountID, uid string, delta float64, now time.Time) error

	// GetMonthlySummary looks up the summary for (uid, month). A missing
	// summary is reported as (nil, nil), not as an error.
	GetMonthlySummary(ctx context.Context, uid, month string) (*core.MonthlySummary, error)

	// UpsertMonthlySummary replaces the summary document keyed by
	// (summary.UID, summary.Month), creating it if absent.
	UpsertMonthlySummary(ctx context.Context, summary core.MonthlySummary) error
}
