// Package memory provides an in-process Store used by tests and by the
// memory backend for local development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FernandoChao/moneyzen-api/internal/core"
)

type (
	accountKey struct{ AccountID, UID string }
	summaryKey struct{ UID, Month string }
)

// Store keeps all three collections behind one mutex. Each exported method is
// a single critical section, which matches the per-operation atomicity the
// Store contract asks for.
type Store struct {
	mu        sync.Mutex
	txs       map[string]core.Transaction
	accounts  map[accountKey]core.Account
	summaries map[summaryKey]core.MonthlySummary
}

func New() *Store {
	return &Store{
		txs:       make(map[string]core.Transaction),
		accounts:  make(map[accountKey]core.Account),
		summaries: make(map[summaryKey]core.MonthlySummary),
	}
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID = uuid.NewString()
	s.txs[tx.ID] = tx
	return tx.ID, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %q not found", id)
	}
	return tx, nil
}

func (s *Store) ApplyBalanceDelta(_ context.Context, accountID, uid string, delta float64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountKey{AccountID: accountID, UID: uid}
	acct, ok := s.accounts[key]
	if !ok {
		acct = core.Account{AccountID: accountID, UID: uid}
	}
	acct.Balance += delta
	acct.UpdatedAt = now
	s.accounts[key] = acct
	return nil
}

func (s *Store) GetMonthlySummary(_ context.Context, uid, month string) (*core.MonthlySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.summaries[summaryKey{UID: uid, Month: month}]
	if !ok {
		return nil, nil
	}
	copied := cloneSummary(summary)
	return &copied, nil
}

func (s *Store) UpsertMonthlySummary(_ context.Context, summary core.MonthlySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summaryKey{UID: summary.UID, Month: summary.Month}] = cloneSummary(summary)
	return nil
}

// Account returns the current account aggregate, primarily for tests.
func (s *Store) Account(accountID, uid string) (core.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[accountKey{AccountID: accountID, UID: uid}]
	return acct, ok
}

// TransactionCount returns the number of stored transactions.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.txs)
}

// cloneSummary deep-copies the category maps so callers never share mutable
// state with the stored document.
func cloneSummary(in core.MonthlySummary) core.MonthlySummary {
	out := in
	out.ByCategoryIn = make(map[string]float64, len(in.ByCategoryIn))
	for k, v := range in.ByCategoryIn {
		out.ByCategoryIn[k] = v
	}
	out.ByCategoryOut = make(map[string]float64, len(in.ByCategoryOut))
	for k, v := range in.ByCategoryOut {
		out.ByCategoryOut[k] = v
	}
	return out
}
