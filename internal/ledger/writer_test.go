package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/FernandoChao/moneyzen-api/internal/core"
	"github.com/FernandoChao/moneyzen-api/internal/store"
	"github.com/FernandoChao/moneyzen-api/internal/store/memory"
)

// failingStore wraps the memory store and fails selected operations.
type failingStore struct {
	*memory.Store
	failInsert     bool
	failBalance    bool
	failSummaryGet bool
	failSummaryPut bool
}

var errBoom = errors.New("boom")

func (f *failingStore) InsertTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	if f.failInsert {
		return "", store.ErrUnavailable
	}
	return f.Store.InsertTransaction(ctx, tx)
}

func (f *failingStore) ApplyBalanceDelta(ctx context.Context, accountID, uid string, delta float64, now time.Time) error {
	if f.failBalance {
		return errBoom
	}
	return f.Store.ApplyBalanceDelta(ctx, accountID, uid, delta, now)
}

func (f *failingStore) GetMonthlySummary(ctx context.Context, uid, month string) (*core.MonthlySummary, error) {
	if f.failSummaryGet {
		return nil, errBoom
	}
	return f.Store.GetMonthlySummary(ctx, uid, month)
}

func (f *failingStore) UpsertMonthlySummary(ctx context.Context, summary core.MonthlySummary) error {
	if f.failSummaryPut {
		return errBoom
	}
	return f.Store.UpsertMonthlySummary(ctx, summary)
}

// recordingPublisher captures reconcile messages.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []reconcileCall
}

type reconcileCall struct {
	TxID        string
	UID         string
	NeedBalance bool
	NeedSummary bool
}

func (p *recordingPublisher) PublishReconcile(_ context.Context, txID, uid string, needBalance, needSummary bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, reconcileCall{txID, uid, needBalance, needSummary})
	return nil
}

func (p *recordingPublisher) calls() []reconcileCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]reconcileCall(nil), p.messages...)
}

func creditRequest(account string, amount float64, category string, date time.Time) core.TransactionRequest {
	return core.TransactionRequest{AccountID: account, Amount: amount, Type: core.In, Category: category, Date: date}
}

func debitRequest(account string, amount float64, category string, date time.Time) core.TransactionRequest {
	return core.TransactionRequest{AccountID: account, Amount: amount, Type: core.Out, Category: category, Date: date}
}

func TestRecordCreditThenDebit(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	w := NewWriter(st, nil)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	txID, err := w.Record(ctx, "u1", creditRequest("a1", 50, "salary", date))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if txID == "" {
		t.Fatal("Record() returned empty transaction id")
	}

	tx, err := st.GetTransaction(ctx, txID)
	if err != nil {
		t.Fatalf("GetTransaction() error = %v", err)
	}
	if tx.UID != "u1" || tx.AccountID != "a1" || tx.Amount != 50 || tx.Type != core.In {
		t.Errorf("unexpected stored transaction: %+v", tx)
	}
	if tx.CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}

	acct, ok := st.Account("a1", "u1")
	if !ok || acct.Balance != 50 {
		t.Fatalf("Account() = %+v, %v; want balance 50", acct, ok)
	}

	summary, err := st.GetMonthlySummary(ctx, "u1", "2024-06")
	if err != nil || summary == nil {
		t.Fatalf("GetMonthlySummary() = %v, %v", summary, err)
	}
	if summary.Income != 50 || summary.TxCount != 1 || summary.ByCategoryIn["salary"] != 50 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if _, err := w.Record(ctx, "u1", debitRequest("a1", 20, "food", date)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	acct, _ = st.Account("a1", "u1")
	if acct.Balance != 30 {
		t.Errorf("Balance = %v, want 30", acct.Balance)
	}
	summary, _ = st.GetMonthlySummary(ctx, "u1", "2024-06")
	if summary.Income != 50 || summary.Expense != 20 || summary.TxCount != 2 {
		t.Errorf("unexpected summary: %+v", summary)
	}
	if summary.ByCategoryOut["food"] != 20 {
		t.Errorf("ByCategoryOut[food] = %v, want 20", summary.ByCategoryOut["food"])
	}
}

// Recording the same payload twice creates two transactions and doubles the
// aggregates: there is no dedup key.
func TestRecordIsNotIdempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	w := NewWriter(st, nil)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	id1, err := w.Record(ctx, "u1", creditRequest("a1", 50, "salary", date))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	id2, err := w.Record(ctx, "u1", creditRequest("a1", 50, "salary", date))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	if id1 == id2 {
		t.Error("identical payloads must still create distinct transactions")
	}
	if st.TransactionCount() != 2 {
		t.Errorf("TransactionCount() = %d, want 2", st.TransactionCount())
	}
	acct, _ := st.Account("a1", "u1")
	if acct.Balance != 100 {
		t.Errorf("Balance = %v, want 100", acct.Balance)
	}
	summary, _ := st.GetMonthlySummary(ctx, "u1", "2024-06")
	if summary.Income != 100 || summary.TxCount != 2 || summary.ByCategoryIn["salary"] != 100 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestRecordZeroAmount(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	w := NewWriter(st, nil)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	if _, err := w.Record(ctx, "u1", debitRequest("a1", 0, "", date)); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	acct, ok := st.Account("a1", "u1")
	if !ok || acct.Balance != 0 {
		t.Errorf("Account() = %+v, %v; want zero balance account", acct, ok)
	}
	summary, _ := st.GetMonthlySummary(ctx, "u1", "2024-06")
	if summary == nil || summary.TxCount != 1 || summary.Expense != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestRecordInsertFailureMutatesNothing(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	st := &failingStore{Store: mem, failInsert: true}
	pub := &recordingPublisher{}
	w := NewWriter(st, pub)

	_, err := w.Record(ctx, "u1", creditRequest("a1", 50, "salary", time.Now().UTC()))
	if err == nil {
		t.Fatal("Record() should fail when the insert fails")
	}
	if !errors.Is(err, store.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}

	if _, ok := mem.Account("a1", "u1"); ok {
		t.Error("no account should be created when the insert fails")
	}
	if got, _ := mem.GetMonthlySummary(ctx, "u1", core.MonthKey(time.Now().UTC())); got != nil {
		t.Error("no summary should be created when the insert fails")
	}
	if len(pub.calls()) != 0 {
		t.Error("nothing to reconcile when the insert fails")
	}
}

func TestRecordBalanceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	st := &failingStore{Store: mem, failBalance: true}
	pub := &recordingPublisher{}
	w := NewWriter(st, pub)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	txID, err := w.Record(ctx, "u1", creditRequest("a1", 50, "salary", date))
	if err != nil {
		t.Fatalf("Record() error = %v; balance failure must not fail the caller", err)
	}

	// The transaction is durable, the summary still applied.
	if _, err := mem.GetTransaction(ctx, txID); err != nil {
		t.Errorf("transaction should be durable: %v", err)
	}
	summary, _ := mem.GetMonthlySummary(ctx, "u1", "2024-06")
	if summary == nil || summary.Income != 50 {
		t.Errorf("summary should still apply: %+v", summary)
	}

	calls := pub.calls()
	if len(calls) != 1 {
		t.Fatalf("reconcile calls = %d, want 1", len(calls))
	}
	if calls[0].TxID != txID || !calls[0].NeedBalance || calls[0].NeedSummary {
		t.Errorf("unexpected reconcile message: %+v", calls[0])
	}
}

func TestRecordSummaryFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	st := &failingStore{Store: mem, failSummaryPut: true}
	pub := &recordingPublisher{}
	w := NewWriter(st, pub)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	txID, err := w.Record(ctx, "u1", debitRequest("a1", 20, "food", date))
	if err != nil {
		t.Fatalf("Record() error = %v; summary failure must not fail the caller", err)
	}

	acct, _ := mem.Account("a1", "u1")
	if acct.Balance != -20 {
		t.Errorf("Balance = %v, want -20", acct.Balance)
	}

	calls := pub.calls()
	if len(calls) != 1 {
		t.Fatalf("reconcile calls = %d, want 1", len(calls))
	}
	if calls[0].TxID != txID || calls[0].NeedBalance || !calls[0].NeedSummary {
		t.Errorf("unexpected reconcile message: %+v", calls[0])
	}
}

func TestRecordSideEffectFailureWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	st := &failingStore{Store: memory.New(), failBalance: true, failSummaryGet: true}
	w := NewWriter(st, nil)

	txID, err := w.Record(ctx, "u1", creditRequest("a1", 50, "", time.Now().UTC()))
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if txID == "" {
		t.Error("transaction id should still be returned")
	}
}

// barrierStore delays every summary lookup until both concurrent writers have
// read, forcing the read-modify-write cycles to interleave.
type barrierStore struct {
	*memory.Store
	barrier *sync.WaitGroup
}

func (b *barrierStore) GetMonthlySummary(ctx context.Context, uid, month string) (*core.MonthlySummary, error) {
	prior, err := b.Store.GetMonthlySummary(ctx, uid, month)
	b.barrier.Done()
	b.barrier.Wait()
	return prior, err
}

// Two concurrent transactions in the same owner+month bucket race on the
// summary's read-modify-write and one contribution is lost. The balance, by
// contrast, sees both because its increments are atomic.
func TestConcurrentSummaryLostUpdate(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	var barrier sync.WaitGroup
	barrier.Add(2)
	st := &barrierStore{Store: mem, barrier: &barrier}
	w := NewWriter(st, nil)
	date := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(2)
	for _, amount := range []float64{50, 20} {
		go func(amount float64) {
			defer wg.Done()
			if _, err := w.Record(ctx, "u1", creditRequest("a1", amount, "", date)); err != nil {
				t.Errorf("Record(%v) error = %v", amount, err)
			}
		}(amount)
	}
	wg.Wait()

	acct, _ := mem.Account("a1", "u1")
	if acct.Balance != 70 {
		t.Errorf("Balance = %v, want 70 (atomic increments see both writes)", acct.Balance)
	}

	summary, _ := mem.GetMonthlySummary(ctx, "u1", "2024-06")
	if summary == nil {
		t.Fatal("summary missing")
	}
	if summary.TxCount != 1 {
		t.Errorf("TxCount = %d, want 1: the second write wins and one update is lost", summary.TxCount)
	}
	if summary.Income != 50 && summary.Income != 20 {
		t.Errorf("Income = %v, want exactly one of the two contributions", summary.Income)
	}
}
