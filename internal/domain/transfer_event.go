package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransferCompletedEvent is the message published after a transfer or send
// commits, consumed downstream for statements and notifications.
type TransferCompletedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	OccurredAt    time.Time `json:"occurred_at"`
}
