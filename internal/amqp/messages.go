package amqp

import (
	"encoding/json"
	"time"
)

// ReconcileMessage asks the worker to re-apply the derived writes for one
// transaction. It carries only identifiers and flags, the worker fetches the
// full transaction from the store.
type ReconcileMessage struct {
	TxID        string    `json:"txId"`
	UID         string    `json:"uid"`
	NeedBalance bool      `json:"needBalance"`
	NeedSummary bool      `json:"needSummary"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReconcileMessage creates a reconcile message for the given transaction
func NewReconcileMessage(txID, uid string, needBalance, needSummary bool) *ReconcileMessage {
	return &ReconcileMessage{
		TxID:        txID,
		UID:         uid,
		NeedBalance: needBalance,
		NeedSummary: needSummary,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReconcileMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReconcileMessageFromJSON creates a message from JSON bytes
func ReconcileMessageFromJSON(data []byte) (*ReconcileMessage, error) {
	var msg ReconcileMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
