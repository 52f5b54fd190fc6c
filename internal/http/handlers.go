package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/FernandoChao/moneyzen-api/internal/auth"
	"github.com/FernandoChao/moneyzen-api/internal/core"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleTxCreate records a transaction for the authenticated user. The token
// is checked before the body is read, so unauthenticated callers learn nothing
// about payload validation.
func (s *Server) handleTxCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()

	token, err := auth.BearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing or malformed authorization header")
		return
	}

	uid, err := s.verifier.Verify(ctx, token)
	if err != nil {
		slog.WarnContext(ctx, "Token verification failed", "error", err)
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	var input core.TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	req, err := core.ValidateTransaction(input, time.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txID, err := s.writer.Record(ctx, uid, req)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to record transaction",
			"error", err,
			"uid", uid,
			"account_id", req.AccountID)
		writeError(w, statusFromError(err), "failed to record transaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"txId": txID,
	})
}
