/**
 * @description
 * This file defines the account-side domain models for the transfer-service.
 * Two balance-bearing representations coexist: regular ledger accounts (rows
 * in the `accounts` table) and application-derived pseudo-accounts (approved
 * rows in `account_applications` whose deposit column doubles as a live
 * balance). Both are defined here together with the resolved view the
 * orchestrators operate on.
 *
 * @notes
 * - Amounts are `int64` cents (fixed-point, 2 decimals) to avoid
 *   floating-point drift on financial data.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a regular ledger account owned by a user.
// This struct maps directly to the `accounts` table.
type Account struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	AccountType   string    `json:"account_type"` // 'checking', 'savings', 'credit'
	Balance       int64     `json:"balance"`      // in cents
	CreatedAt     time.Time `json:"created_at"`
}

// AccountApplication represents a row in `account_applications`. Once its
// status is 'approved' it is addressable as a pseudo-account whose balance
// lives in the `initial_deposit` column. The column keeps its historical
// name on disk; in code the field is a balance, which is what the value has
// meant ever since the first transfer touched it.
type AccountApplication struct {
	ID              string    `json:"id"`
	ApplicationType string    `json:"application_type"`
	Email           string    `json:"email"`
	Status          string    `json:"status"` // 'pending', 'approved', 'rejected'
	Balance         int64     `json:"balance"` // in cents; persisted as initial_deposit
	CreatedAt       time.Time `json:"created_at"`
}

// User is the slim view of a user the transfer-service needs: identity plus
// the email that gates derived-account ownership.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AccountKind distinguishes the two balance-bearing representations.
type AccountKind string

const (
	KindRegular AccountKind = "regular"
	KindDerived AccountKind = "derived"
)

// ResolvedAccount is the balance-bearing record an identifier resolves to.
// It carries everything a mutation needs to address the right storage:
// the account row id for regular accounts, the application (type, id) pair
// for derived ones.
type ResolvedAccount struct {
	Kind            AccountKind
	Identifier      string // the identifier as the caller supplied it
	AccountID       uuid.UUID
	ApplicationID   string
	ApplicationType string
	AccountNumber   string
	Balance         int64 // snapshot at resolution time, in cents
}

// AccountSummary is the dashboard view of either account kind.
type AccountSummary struct {
	Identifier    string `json:"id"`
	AccountNumber string `json:"account_number"`
	AccountType   string `json:"account_type"`
	Balance       int64  `json:"balance"`
	Derived       bool   `json:"derived"`
}
