/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract
 * for all data access operations required by the transfer-service. The
 * interface decouples the orchestration logic from PostgreSQL and lets the
 * tests substitute stub repositories.
 *
 * Methods come in plain and ForUpdate pairs where the orchestrators need a
 * row lock held for the remainder of the surrounding transaction.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/horizonbank/transfer-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
// Every method honors a transaction carried on the context (see TxManager).
type Repository interface {
	// Users
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// Regular accounts
	FindAccountForUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error)
	FindAccountForUserForUpdate(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error)
	FindCheckingAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	ListAccountsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
	// ApplyAccountDelta increments the stored balance atomically in the
	// database; callers validate funds before debiting.
	ApplyAccountDelta(ctx context.Context, accountID uuid.UUID, delta int64) error

	// Application-derived pseudo-accounts
	FindApprovedApplication(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error)
	FindApprovedApplicationForUpdate(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error)
	SetApplicationBalance(ctx context.Context, applicationType, applicationID string, balance int64) error
	// SetApplicationBalanceForEmail additionally gates the update on the
	// application's email; used on the send-money credit path where the
	// recipient's identity, not the sender's, owns the destination.
	SetApplicationBalanceForEmail(ctx context.Context, applicationType, applicationID, email string, balance int64) error
	FindApprovedCheckingApplicationByEmail(ctx context.Context, email string) (*domain.AccountApplication, error)
	ListApprovedApplicationsByEmail(ctx context.Context, email string) ([]domain.AccountApplication, error)

	// Transaction ledger
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactionsForIdentifiers(ctx context.Context, identifiers []string) ([]domain.Transaction, error)
}
