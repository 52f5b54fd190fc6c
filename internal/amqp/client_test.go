package amqp

import (
	"testing"
	"time"
)

func TestNewReconcileMessage(t *testing.T) {
	msg := NewReconcileMessage("tx-1", "u1", true, false)

	if msg.TxID != "tx-1" {
		t.Errorf("NewReconcileMessage() TxID = %v, want tx-1", msg.TxID)
	}
	if msg.UID != "u1" {
		t.Errorf("NewReconcileMessage() UID = %v, want u1", msg.UID)
	}
	if !msg.NeedBalance || msg.NeedSummary {
		t.Errorf("NewReconcileMessage() flags = %v/%v, want true/false", msg.NeedBalance, msg.NeedSummary)
	}
	if msg.Timestamp.IsZero() {
		t.Error("NewReconcileMessage() Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("NewReconcileMessage() Timestamp should be recent")
	}
}

func TestReconcileMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ReconcileMessage{
		TxID:        "64f1b2c3d4e5f60718293a4b",
		UID:         "user-123",
		NeedBalance: true,
		NeedSummary: true,
		Timestamp:   timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsedMsg, err := ReconcileMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("ReconcileMessageFromJSON() error = %v", err)
	}

	if parsedMsg.TxID != msg.TxID {
		t.Errorf("Parsed TxID = %v, want %v", parsedMsg.TxID, msg.TxID)
	}
	if parsedMsg.UID != msg.UID {
		t.Errorf("Parsed UID = %v, want %v", parsedMsg.UID, msg.UID)
	}
	if parsedMsg.NeedBalance != msg.NeedBalance || parsedMsg.NeedSummary != msg.NeedSummary {
		t.Errorf("Parsed flags = %v/%v, want %v/%v",
			parsedMsg.NeedBalance, parsedMsg.NeedSummary, msg.NeedBalance, msg.NeedSummary)
	}
	if !parsedMsg.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Parsed Timestamp = %v, want %v", parsedMsg.Timestamp, msg.Timestamp)
	}
}

func TestReconcileMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"txId": 42, "needBalance": "yes"}`)

	_, err := ReconcileMessageFromJSON(invalidJSON)
	if err == nil {
		t.Error("ReconcileMessageFromJSON() should fail with invalid JSON")
	}
}
