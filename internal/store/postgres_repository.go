/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface. It contains all SQL for the accounts, account_applications,
 * users, and transactions tables.
 *
 * Balance storage is split across two representations:
 * - regular accounts mutate via an atomic `balance = balance + delta`;
 * - application-derived pseudo-accounts mutate via read-modify-write on the
 *   `initial_deposit` column, which is why the ForUpdate lookups exist: the
 *   orchestrators lock the application row for the remainder of their
 *   transaction before computing the new balance.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: Domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/horizonbank/transfer-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrAccountNotFound     = errors.New("account not found")
	ErrApplicationNotFound = errors.New("account application not found")
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every query
// runs on the context transaction when one is present.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) q(ctx context.Context) querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// FindUserByEmail retrieves a user by email, case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT id, btrim(email) FROM users WHERE lower(btrim(email)) = lower(btrim($1))`
	err := r.q(ctx).QueryRow(ctx, query, email).Scan(&user.ID, &user.Email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

const accountColumns = `id, user_id, account_number, account_type, balance, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountNumber,
		&account.AccountType,
		&account.Balance,
		&account.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAccountForUser retrieves a regular account scoped to its owner. A row
// that exists but belongs to someone else reads the same as no row at all.
func (r *PostgresRepository) FindAccountForUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2`
	return scanAccount(r.q(ctx).QueryRow(ctx, query, accountID, userID))
}

// FindAccountForUserForUpdate behaves like FindAccountForUser but locks the
// row for the remainder of the context transaction.
func (r *PostgresRepository) FindAccountForUserForUpdate(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return scanAccount(r.q(ctx).QueryRow(ctx, query, accountID, userID))
}

// FindCheckingAccountByUserID retrieves a user's regular checking account,
// the fallback send-money destination.
func (r *PostgresRepository) FindCheckingAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE user_id = $1 AND account_type = 'checking'
		ORDER BY created_at ASC
		LIMIT 1
	`
	return scanAccount(r.q(ctx).QueryRow(ctx, query, userID))
}

// ListAccountsByUserID retrieves all regular accounts owned by a user.
func (r *PostgresRepository) ListAccountsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY created_at ASC`
	rows, err := r.q(ctx).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID,
			&account.UserID,
			&account.AccountNumber,
			&account.AccountType,
			&account.Balance,
			&account.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// ApplyAccountDelta applies a signed delta to a regular account's balance as
// a single database-computed increment.
func (r *PostgresRepository) ApplyAccountDelta(ctx context.Context, accountID uuid.UUID, delta int64) error {
	query := `UPDATE accounts SET balance = balance + $1, updated_at = NOW() WHERE id = $2`
	result, err := r.q(ctx).Exec(ctx, query, delta, accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

const applicationColumns = `id, application_type, btrim(email), status, COALESCE(initial_deposit, 0), created_at`

func scanApplication(row pgx.Row) (*domain.AccountApplication, error) {
	var app domain.AccountApplication
	err := row.Scan(
		&app.ID,
		&app.ApplicationType,
		&app.Email,
		&app.Status,
		&app.Balance,
		&app.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &app, nil
}

// FindApprovedApplication retrieves an approved application row by id and type.
func (r *PostgresRepository) FindApprovedApplication(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM account_applications
		WHERE id = $1 AND application_type = $2 AND status = 'approved'
	`
	return scanApplication(r.q(ctx).QueryRow(ctx, query, applicationID, applicationType))
}

// FindApprovedApplicationForUpdate behaves like FindApprovedApplication but
// locks the row for the remainder of the context transaction. The lock is
// what keeps the subsequent read-modify-write on initial_deposit from losing
// updates under concurrent transfers touching the same pseudo-account.
func (r *PostgresRepository) FindApprovedApplicationForUpdate(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM account_applications
		WHERE id = $1 AND application_type = $2 AND status = 'approved'
		FOR UPDATE
	`
	return scanApplication(r.q(ctx).QueryRow(ctx, query, applicationID, applicationType))
}

// SetApplicationBalance persists a computed balance on an application row.
func (r *PostgresRepository) SetApplicationBalance(ctx context.Context, applicationType, applicationID string, balance int64) error {
	query := `
		UPDATE account_applications
		SET initial_deposit = $1, updated_at = NOW()
		WHERE id = $2 AND application_type = $3 AND status = 'approved'
	`
	result, err := r.q(ctx).Exec(ctx, query, balance, applicationID, applicationType)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// SetApplicationBalanceForEmail persists a computed balance, additionally
// filtered by the owning email.
func (r *PostgresRepository) SetApplicationBalanceForEmail(ctx context.Context, applicationType, applicationID, email string, balance int64) error {
	query := `
		UPDATE account_applications
		SET initial_deposit = $1, updated_at = NOW()
		WHERE id = $2 AND application_type = $3 AND status = 'approved'
		  AND lower(btrim(email)) = lower(btrim($4))
	`
	result, err := r.q(ctx).Exec(ctx, query, balance, applicationID, applicationType, email)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrApplicationNotFound
	}
	return nil
}

// FindApprovedCheckingApplicationByEmail retrieves the preferred approved
// checking application for an email. Precedence follows
// domain.CheckingApplicationTypes: the first type with an approved row wins,
// regardless of row age.
func (r *PostgresRepository) FindApprovedCheckingApplicationByEmail(ctx context.Context, email string) (*domain.AccountApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM account_applications
		WHERE lower(btrim(email)) = lower(btrim($1))
		  AND status = 'approved'
		  AND application_type = ANY($2)
		ORDER BY array_position($2, application_type), created_at ASC
		LIMIT 1
	`
	return scanApplication(r.q(ctx).QueryRow(ctx, query, email, domain.CheckingApplicationTypes))
}

// ListApprovedApplicationsByEmail retrieves every approved application for
// an email, i.e. every pseudo-account the user can address.
func (r *PostgresRepository) ListApprovedApplicationsByEmail(ctx context.Context, email string) ([]domain.AccountApplication, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM account_applications
		WHERE lower(btrim(email)) = lower(btrim($1)) AND status = 'approved'
		ORDER BY created_at ASC
	`
	rows, err := r.q(ctx).Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.AccountApplication
	for rows.Next() {
		var app domain.AccountApplication
		if err := rows.Scan(
			&app.ID,
			&app.ApplicationType,
			&app.Email,
			&app.Status,
			&app.Balance,
			&app.CreatedAt,
		); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// CreateTransaction inserts a new ledger record.
func (r *PostgresRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (
			id,
			from_account_id,
			to_account_id,
			amount,
			type,
			description,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q(ctx).Exec(ctx, query,
		tx.ID,
		tx.FromAccountID,
		tx.ToAccountID,
		tx.Amount,
		tx.Type,
		tx.Description,
		tx.Status,
	)
	return err
}

// ListTransactionsForIdentifiers retrieves ledger rows where either side
// matches one of the given account identifiers, newest first.
func (r *PostgresRepository) ListTransactionsForIdentifiers(ctx context.Context, identifiers []string) ([]domain.Transaction, error) {
	if len(identifiers) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, COALESCE(from_account_id, ''), COALESCE(to_account_id, ''),
		       amount, type, COALESCE(description, ''), status, created_at
		FROM transactions
		WHERE from_account_id = ANY($1) OR to_account_id = ANY($1)
		ORDER BY created_at DESC
	`
	rows, err := r.q(ctx).Query(ctx, query, identifiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.FromAccountID,
			&tx.ToAccountID,
			&tx.Amount,
			&tx.Type,
			&tx.Description,
			&tx.Status,
			&tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
