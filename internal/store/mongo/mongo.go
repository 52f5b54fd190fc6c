// Package mongo implements the ledger Store on MongoDB. The balance update
// relies on the server-side $inc upsert, which is the only operation the
// writer needs to be atomic.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FernandoChao/moneyzen-api/internal/core"
	"github.com/FernandoChao/moneyzen-api/internal/store"
)

const (
	colTransactions = "transactions"
	colAccounts     = "accounts"
	colSummaries    = "summaries"
)

type Store struct {
	client    *mongo.Client
	db        *mongo.Database
	opTimeout time.Duration
}

type transactionDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UID       string             `bson:"uid"`
	AccountID string             `bson:"accountId"`
	Amount    float64            `bson:"amount"`
	Type      string             `bson:"type"`
	Category  string             `bson:"category,omitempty"`
	Date      time.Time          `bson:"date"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type summaryDoc struct {
	UID           string             `bson:"uid"`
	Month         string             `bson:"month"`
	Income        float64            `bson:"income"`
	Expense       float64            `bson:"expense"`
	TxCount       int64              `bson:"txCount"`
	ByCategoryIn  map[string]float64 `bson:"byCategoryIn"`
	ByCategoryOut map[string]float64 `bson:"byCategoryOut"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// Connect dials the MongoDB deployment and verifies it is reachable before
// returning a Store. opTimeout bounds every subsequent store operation.
func Connect(ctx context.Context, uri, dbName string, opTimeout time.Duration) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{
		client:    client,
		db:        client.Database(dbName),
		opTimeout: opTimeout,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func (s *Store) InsertTransaction(ctx context.Context, tx core.Transaction) (string, error) {
	cctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.db.Collection(colTransactions).InsertOne(cctx, transactionDoc{
		UID:       tx.UID,
		AccountID: tx.AccountID,
		Amount:    tx.Amount,
		Type:      string(tx.Type),
		Category:  tx.Category,
		Date:      tx.Date,
		CreatedAt: tx.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: insert transaction: %v", store.ErrUnavailable, err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: unexpected inserted id type %T", store.ErrUnavailable, res.InsertedID)
	}
	return id.Hex(), nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid transaction id %q: %w", id, err)
	}

	cctx, cancel := s.opCtx(ctx)
	defer cancel()

	var doc transactionDoc
	err = s.db.Collection(colTransactions).FindOne(cctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.Transaction{}, fmt.Errorf("transaction %q not found", id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: get transaction: %v", store.ErrUnavailable, err)
	}

	return core.Transaction{
		ID:        doc.ID.Hex(),
		UID:       doc.UID,
		AccountID: doc.AccountID,
		Amount:    doc.Amount,
		Type:      core.Direction(doc.Type),
		Category:  doc.Category,
		Date:      doc.Date,
		CreatedAt: doc.CreatedAt,
	}, nil
}

// ApplyBalanceDelta issues a single $inc upsert, so concurrent deltas against
// the same account commute server-side.
func (s *Store) ApplyBalanceDelta(ctx context.Context, accountID, uid string, delta float64, now time.Time) error {
	cctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection(colAccounts).UpdateOne(
		cctx,
		bson.M{"_id": accountID, "uid": uid},
		bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updatedAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: apply balance delta: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) GetMonthlySummary(ctx context.Context, uid, month string) (*core.MonthlySummary, error) {
	cctx, cancel := s.opCtx(ctx)
	defer cancel()

	var doc summaryDoc
	err := s.db.Collection(colSummaries).FindOne(cctx, bson.M{"uid": uid, "month": month}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get monthly summary: %v", store.ErrUnavailable, err)
	}

	return &core.MonthlySummary{
		UID:           doc.UID,
		Month:         doc.Month,
		Income:        doc.Income,
		Expense:       doc.Expense,
		TxCount:       doc.TxCount,
		ByCategoryIn:  doc.ByCategoryIn,
		ByCategoryOut: doc.ByCategoryOut,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

func (s *Store) UpsertMonthlySummary(ctx context.Context, summary core.MonthlySummary) error {
	cctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.db.Collection(colSummaries).ReplaceOne(
		cctx,
		bson.M{"uid": summary.UID, "month": summary.Month},
		summaryDoc{
			UID:           summary.UID,
			Month:         summary.Month,
			Income:        summary.Income,
			Expense:       summary.Expense,
			TxCount:       summary.TxCount,
			ByCategoryIn:  summary.ByCategoryIn,
			ByCategoryOut: summary.ByCategoryOut,
			UpdatedAt:     summary.UpdatedAt,
		},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert monthly summary: %v", store.ErrUnavailable, err)
	}
	return nil
}
