/**
 * @description
 * This file contains the HTTP handlers for the transfer-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * All responses share one envelope: {"success": true, ...} on the happy path,
 * {"success": false, "message": "..."} on errors.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/horizonbank/transfer-service/internal/app"
	"github.com/horizonbank/transfer-service/internal/domain"
)

// RateLimitPolicy caps transfer attempts per user inside a rolling window.
// A zero Limit disables the check.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service    *app.Service
	limiter    app.RateLimiter
	ratePolicy RateLimitPolicy
}

// NewTransferHandlers creates a new instance of TransferHandlers. limiter may
// be nil when Redis is not configured; rate limiting is then skipped.
func NewTransferHandlers(service *app.Service, limiter app.RateLimiter, policy RateLimitPolicy) *TransferHandlers {
	return &TransferHandlers{service: service, limiter: limiter, ratePolicy: policy}
}

// transferRequestBody is the wire shape for POST /transfer. Amount arrives as
// a decimal currency value (JSON number) and is converted to cents here.
type transferRequestBody struct {
	FromAccountID string      `json:"fromAccountId"`
	ToAccountID   string      `json:"toAccountId"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description"`
}

// sendMoneyRequestBody is the wire shape for POST /send-money.
type sendMoneyRequestBody struct {
	FromAccountID string      `json:"fromAccountId"`
	ToEmail       string      `json:"toEmail"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description"`
}

// amountToCents converts a decimal currency amount to cents, rounding
// sub-cent fractions to the nearest cent.
func amountToCents(raw json.Number) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(raw.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw.String())
	}
	cents := math.Round(value * 100)
	if math.IsNaN(cents) || cents >= math.MaxInt64 || cents <= math.MinInt64 {
		return 0, fmt.Errorf("amount %q out of range", raw.String())
	}
	return int64(cents), nil
}

// enforceRateLimit consumes one attempt for the user. Returns false after
// writing the 429 response when the user is over the limit.
func (h *TransferHandlers) enforceRateLimit(w http.ResponseWriter, r *http.Request, scope string, actor domain.User) bool {
	if h.limiter == nil || h.ratePolicy.Limit <= 0 {
		return true
	}
	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), scope, actor.ID.String(), h.ratePolicy.Limit, h.ratePolicy.Window)
	if err != nil {
		// Redis being down must not block money movement.
		log.Printf("level=warn component=api endpoint=%s msg=\"rate limiter unavailable\" user_id=%s err=%v", scope, actor.ID, err)
		return true
	}
	if count > h.ratePolicy.Limit {
		log.Printf("level=warn component=api endpoint=%s outcome=rate_limited user_id=%s count=%d limit=%d", scope, actor.ID, count, h.ratePolicy.Limit)
		if retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		}
		respondWithError(w, http.StatusTooManyRequests, "Too many transfer attempts. Please try again shortly.")
		return false
	}
	return true
}

// TransferHandler handles POST /transfer: a movement between two accounts the
// authenticated user owns or addresses directly.
func (h *TransferHandlers) TransferHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetAuthenticatedUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Could not get user from context")
		return
	}
	if !h.enforceRateLimit(w, r, "transfer", actor) {
		return
	}

	var body transferRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("level=warn component=api endpoint=transfer outcome=reject reason=invalid_json err=%v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := amountToCents(body.Amount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	req := domain.TransferRequest{
		FromAccountID: body.FromAccountID,
		ToAccountID:   body.ToAccountID,
		Amount:        amount,
		Description:   body.Description,
	}

	txID, err := h.service.Transfer(r.Context(), actor, req)
	if err != nil {
		h.writeServiceError(w, "transfer", actor, err)
		return
	}

	log.Printf("level=info component=api endpoint=transfer outcome=completed user_id=%s transaction_id=%s amount=%d", actor.ID, txID, amount)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"transactionId": txID.String(),
	})
}

// SendMoneyHandler handles POST /send-money: a payment addressed to a
// recipient by email, with destination discovery on the recipient side.
func (h *TransferHandlers) SendMoneyHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetAuthenticatedUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Could not get user from context")
		return
	}
	if !h.enforceRateLimit(w, r, "send_money", actor) {
		return
	}

	var body sendMoneyRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		log.Printf("level=warn component=api endpoint=send_money outcome=reject reason=invalid_json err=%v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	amount, err := amountToCents(body.Amount)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	req := domain.SendMoneyRequest{
		FromAccountID: body.FromAccountID,
		ToEmail:       body.ToEmail,
		Amount:        amount,
		Description:   body.Description,
	}

	txID, err := h.service.SendMoney(r.Context(), actor, req)
	if err != nil {
		h.writeServiceError(w, "send_money", actor, err)
		return
	}

	log.Printf("level=info component=api endpoint=send_money outcome=completed user_id=%s transaction_id=%s amount=%d", actor.ID, txID, amount)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"transactionId": txID.String(),
		"message":       "Money sent successfully",
	})
}

// ListTransactionsHandler handles GET /transactions: the user's ledger rows,
// newest first, with both sides interpreted relative to the user.
func (h *TransferHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetAuthenticatedUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Could not get user from context")
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), actor)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed user_id=%s err=%v", actor.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"transactions": transactions,
	})
}

// ListAccountsHandler handles GET /accounts: regular accounts plus approved
// applications presented as pseudo-accounts.
func (h *TransferHandlers) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	actor, ok := GetAuthenticatedUser(r.Context())
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Could not get user from context")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), actor)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_accounts outcome=failed user_id=%s err=%v", actor.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"accounts": accounts,
	})
}

// HealthHandler reports liveness for load balancers.
func (h *TransferHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  "ok",
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (h *TransferHandlers) writeServiceError(w http.ResponseWriter, endpoint string, actor domain.User, err error) {
	switch {
	case errors.Is(err, app.ErrValidation), errors.Is(err, app.ErrInsufficientFunds):
		log.Printf("level=warn component=api endpoint=%s outcome=reject user_id=%s err=%v", endpoint, actor.ID, err)
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrForbidden):
		log.Printf("level=warn component=api endpoint=%s outcome=forbidden user_id=%s err=%v", endpoint, actor.ID, err)
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrNotFound):
		log.Printf("level=warn component=api endpoint=%s outcome=not_found user_id=%s err=%v", endpoint, actor.ID, err)
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s outcome=failed user_id=%s err=%v", endpoint, actor.ID, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// respondWithJSON is a helper for writing JSON responses.
func respondWithJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondWithError is a helper for writing envelope error responses.
func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
