/**
 * @description
 * This file defines the transaction-ledger domain models and the request
 * DTOs for the money-movement endpoints. A Transaction is the append-only
 * record written exactly once per completed transfer or send; it is never
 * updated afterwards.
 *
 * @notes
 * - `FromAccountID`/`ToAccountID` hold either a regular account UUID or a
 *   derived pseudo-account identifier, so they are strings, not UUIDs.
 * - Amounts are `int64` cents.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types recorded in the ledger. Transfer and SendMoney both
// record 'transfer'; the remaining values appear on administratively
// created rows.
const (
	TxTypeDeposit    = "deposit"
	TxTypeWithdrawal = "withdrawal"
	TxTypeTransfer   = "transfer"
	TxTypePayment    = "payment"
)

// TxStatusCompleted is the only status this service writes; rows exist
// only for operations that committed.
const TxStatusCompleted = "completed"

// Transaction is the central ledger record for a completed money movement.
// Maps directly to the `transactions` table.
type Transaction struct {
	ID            uuid.UUID `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        int64     `json:"amount"` // in cents, always > 0
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransferRequest is the DTO for POST /transfer. Amount arrives as a
// decimal currency value and is converted to cents at the API boundary.
type TransferRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToAccountID   string `json:"toAccountId"`
	Amount        int64  `json:"-"`
	Description   string `json:"description"`
}

// SendMoneyRequest is the DTO for POST /send-money.
type SendMoneyRequest struct {
	FromAccountID string `json:"fromAccountId"`
	ToEmail       string `json:"toEmail"`
	Amount        int64  `json:"-"`
	Description   string `json:"description"`
}

// TransferDirection describes how a ledger row relates to the requesting user.
type TransferDirection string

const (
	DirectionOutgoing TransferDirection = "outgoing"
	DirectionIncoming TransferDirection = "incoming"
	DirectionInternal TransferDirection = "internal"
)

// EnrichedTransaction is the statement/history view of a ledger row: the raw
// record plus the interpretation of both identifier sides relative to the
// requesting user.
type EnrichedTransaction struct {
	Transaction
	Direction    TransferDirection `json:"direction"`
	FromDisplay  string            `json:"from_display"`
	ToDisplay    string            `json:"to_display"`
	SignedAmount int64             `json:"signed_amount"`
}
