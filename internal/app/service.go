/**
 * @description
 * This file contains the core business logic for the transfer-service. The
 * `Service` struct orchestrates all money movement: internal transfers
 * between a user's own accounts and peer-to-peer sends addressed by the
 * recipient's email.
 *
 * Key features:
 * - Every operation runs resolve -> validate -> debit -> credit -> record
 *   inside one database transaction; any failure rolls the whole unit back.
 * - Source rows (and derived destination rows) are locked with
 *   SELECT ... FOR UPDATE before the funds check, so the balance snapshot
 *   used for the derived-account read-modify-write cannot go stale.
 * - Publishes a transfer.completed event after commit, best effort.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For transaction IDs.
 * - internal/domain, internal/store: Domain models and data access.
 * - pkg/rabbitmq: Event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/horizonbank/transfer-service/internal/domain"
	"github.com/horizonbank/transfer-service/internal/store"
	"github.com/horizonbank/transfer-service/pkg/rabbitmq"
)

// TransferEventExchange is the topic exchange transfer events publish to.
const TransferEventExchange = "bank.events"

// Service provides the core business logic for money movement.
type Service struct {
	repo     store.Repository
	txm      store.TxManager
	resolver *Resolver
	events   rabbitmq.Publisher
}

// NewService creates a new transfer service instance. events may be nil
// when no broker is configured.
func NewService(repo store.Repository, txm store.TxManager, events rabbitmq.Publisher) *Service {
	return &Service{
		repo:     repo,
		txm:      txm,
		resolver: NewResolver(repo),
		events:   events,
	}
}

// Transfer moves amount between two accounts owned by the acting user. Both
// sides resolve under the actor's own identity: moving money to another
// user goes through SendMoney, never Transfer. Returns the id of the ledger
// record written for the completed transfer.
func (s *Service) Transfer(ctx context.Context, actor domain.User, req domain.TransferRequest) (uuid.UUID, error) {
	fromID := strings.TrimSpace(req.FromAccountID)
	toID := strings.TrimSpace(req.ToAccountID)
	if fromID == "" || toID == "" {
		return uuid.Nil, fmt.Errorf("%w: fromAccountId and toAccountId are required", ErrValidation)
	}
	if req.Amount <= 0 {
		return uuid.Nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if fromID == toID {
		return uuid.Nil, fmt.Errorf("%w: source and destination must differ", ErrValidation)
	}

	var record *domain.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		// Both sides resolve under the same acting user. Rows are locked
		// in identifier order so two opposite-direction transfers over
		// the same pair of accounts cannot deadlock.
		firstID, secondID := fromID, toID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := s.resolver.Resolve(ctx, firstID, actor.ID, actor.Email, true)
		if err != nil {
			return err
		}
		second, err := s.resolver.Resolve(ctx, secondID, actor.ID, actor.Email, true)
		if err != nil {
			return err
		}

		source, destination := first, second
		if firstID != fromID {
			source, destination = second, first
		}

		if source.Balance < req.Amount {
			return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientFunds, source.Balance, req.Amount)
		}

		if err := s.applyDelta(ctx, source, -req.Amount); err != nil {
			return fmt.Errorf("debit failed: %w", err)
		}
		if err := s.applyDelta(ctx, destination, req.Amount); err != nil {
			return fmt.Errorf("credit failed: %w", err)
		}

		record = &domain.Transaction{
			ID:            uuid.New(),
			FromAccountID: source.Identifier,
			ToAccountID:   destination.Identifier,
			Amount:        req.Amount,
			Type:          domain.TxTypeTransfer,
			Description:   req.Description,
			Status:        domain.TxStatusCompleted,
		}
		if err := s.repo.CreateTransaction(ctx, record); err != nil {
			return fmt.Errorf("ledger insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.publishTransferCompleted(ctx, record)
	return record.ID, nil
}

// SendMoney moves amount from the acting user's account to another user
// identified by email. The destination is discovered, not supplied: an
// approved derived checking application for that email wins over a regular
// checking account whenever both exist.
func (s *Service) SendMoney(ctx context.Context, actor domain.User, req domain.SendMoneyRequest) (uuid.UUID, error) {
	if strings.TrimSpace(req.FromAccountID) == "" || strings.TrimSpace(req.ToEmail) == "" {
		return uuid.Nil, fmt.Errorf("%w: fromAccountId and toEmail are required", ErrValidation)
	}
	if req.Amount <= 0 {
		return uuid.Nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = fmt.Sprintf("Payment to %s", strings.TrimSpace(req.ToEmail))
	}

	var record *domain.Transaction
	err := s.txm.WithTransaction(ctx, func(ctx context.Context) error {
		recipient, err := s.repo.FindUserByEmail(ctx, req.ToEmail)
		if err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				return fmt.Errorf("%w: recipient %s", ErrNotFound, req.ToEmail)
			}
			return fmt.Errorf("recipient lookup failed: %w", err)
		}

		destinationID, credit, err := s.discoverRecipientDestination(ctx, recipient)
		if err != nil {
			return err
		}

		source, err := s.resolver.Resolve(ctx, req.FromAccountID, actor.ID, actor.Email, true)
		if err != nil {
			return err
		}
		if source.Identifier == destinationID {
			return fmt.Errorf("%w: source and destination must differ", ErrValidation)
		}

		if source.Balance < req.Amount {
			return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientFunds, source.Balance, req.Amount)
		}

		if err := s.applyDelta(ctx, source, -req.Amount); err != nil {
			return fmt.Errorf("debit failed: %w", err)
		}
		if err := credit(ctx, req.Amount); err != nil {
			return fmt.Errorf("credit failed: %w", err)
		}

		record = &domain.Transaction{
			ID:            uuid.New(),
			FromAccountID: source.Identifier,
			ToAccountID:   destinationID,
			Amount:        req.Amount,
			Type:          domain.TxTypeTransfer,
			Description:   description,
			Status:        domain.TxStatusCompleted,
		}
		if err := s.repo.CreateTransaction(ctx, record); err != nil {
			return fmt.Errorf("ledger insert failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.publishTransferCompleted(ctx, record)
	return record.ID, nil
}

// creditFn applies a positive amount to an already-discovered destination.
type creditFn func(ctx context.Context, amount int64) error

// discoverRecipientDestination finds where a send-money credit lands for a
// recipient: their preferred approved checking application, falling back to
// a regular checking account. Returns the destination's identifier string
// and the credit operation bound to it.
func (s *Service) discoverRecipientDestination(ctx context.Context, recipient *domain.User) (string, creditFn, error) {
	app, err := s.repo.FindApprovedCheckingApplicationByEmail(ctx, recipient.Email)
	if err == nil {
		ident := domain.DerivedIdentifier(app.ApplicationType, app.ID)
		credit := func(ctx context.Context, amount int64) error {
			// Lock the application row before the read-modify-write; the
			// discovery read above was unlocked and may be stale.
			locked, err := s.repo.FindApprovedApplicationForUpdate(ctx, app.ApplicationType, app.ID)
			if err != nil {
				return err
			}
			// The recipient's email, not the sender's, gates this update.
			return s.repo.SetApplicationBalanceForEmail(ctx, locked.ApplicationType, locked.ID, recipient.Email, locked.Balance+amount)
		}
		return ident, credit, nil
	}
	if !errors.Is(err, store.ErrApplicationNotFound) {
		return "", nil, fmt.Errorf("recipient application lookup failed: %w", err)
	}

	account, err := s.repo.FindCheckingAccountByUserID(ctx, recipient.ID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return "", nil, fmt.Errorf("%w: no destination account for %s", ErrNotFound, recipient.Email)
		}
		return "", nil, fmt.Errorf("recipient account lookup failed: %w", err)
	}

	credit := func(ctx context.Context, amount int64) error {
		return s.repo.ApplyAccountDelta(ctx, account.ID, amount)
	}
	return account.ID.String(), credit, nil
}

// applyDelta mutates a resolved account's stored balance. Regular accounts
// use a database-computed increment; derived accounts write back the locked
// snapshot plus the delta. Sufficient funds are the caller's concern.
func (s *Service) applyDelta(ctx context.Context, account *domain.ResolvedAccount, delta int64) error {
	if account.Kind == domain.KindRegular {
		return s.repo.ApplyAccountDelta(ctx, account.AccountID, delta)
	}
	return s.repo.SetApplicationBalance(ctx, account.ApplicationType, account.ApplicationID, account.Balance+delta)
}

func (s *Service) publishTransferCompleted(ctx context.Context, record *domain.Transaction) {
	if s.events == nil || record == nil {
		return
	}
	event := domain.TransferCompletedEvent{
		TransactionID: record.ID,
		FromAccountID: record.FromAccountID,
		ToAccountID:   record.ToAccountID,
		Amount:        record.Amount,
		Type:          record.Type,
		Description:   record.Description,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, TransferEventExchange, "transfer.completed", event); err != nil {
		log.Printf("level=warn component=app msg=\"transfer event publish failed\" transaction_id=%s err=%v", record.ID, err)
	}
}
