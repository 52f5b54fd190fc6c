package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionInput is the raw create payload as received on the wire. Amount
// stays a json.Number so that non-numeric values fail during decoding instead
// of being silently coerced.
type TransactionInput struct {
	AccountID string      `json:"accountId"`
	Amount    json.Number `json:"amount"`
	Type      string      `json:"type"`
	Category  string      `json:"category"`
	Date      string      `json:"date"`
}

// TransactionRequest is a validated request ready for the ledger writer.
type TransactionRequest struct {
	AccountID string
	Amount    float64 // magnitude, never negative
	Type      Direction
	Category  string // empty means no category
	Date      time.Time
}

// Accepted effective-date layouts, tried in order.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ValidateTransaction checks a raw payload and produces a validated request.
// The amount's sign is derived from Type, never from the input sign. The
// effective date defaults to now (UTC) when absent; an unparsable date is
// rejected rather than silently defaulted.
func ValidateTransaction(in TransactionInput, now time.Time) (TransactionRequest, error) {
	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" {
		return TransactionRequest{}, fmt.Errorf("%w: accountId is required", ErrInvalidInput)
	}

	if in.Amount == "" {
		return TransactionRequest{}, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	amount, err := decimal.NewFromString(in.Amount.String())
	if err != nil {
		return TransactionRequest{}, fmt.Errorf("%w: amount must be a number", ErrInvalidInput)
	}
	magnitude := amount.Abs().InexactFloat64()
	if math.IsInf(magnitude, 0) || math.IsNaN(magnitude) {
		return TransactionRequest{}, fmt.Errorf("%w: amount must be finite", ErrInvalidInput)
	}

	dir := Direction(in.Type)
	if !dir.Valid() {
		return TransactionRequest{}, fmt.Errorf("%w: type must be %q or %q", ErrInvalidInput, In, Out)
	}

	when := now.UTC()
	if v := strings.TrimSpace(in.Date); v != "" {
		parsed, err := parseEffectiveDate(v)
		if err != nil {
			return TransactionRequest{}, fmt.Errorf("%w: date must be an ISO-8601 timestamp", ErrInvalidInput)
		}
		when = parsed
	}

	return TransactionRequest{
		AccountID: accountID,
		Amount:    magnitude,
		Type:      dir,
		Category:  strings.TrimSpace(in.Category),
		Date:      when,
	}, nil
}

func parseEffectiveDate(v string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, v)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
