/**
 * @description
 * Read side of the transaction ledger: listing a user's completed transfers
 * with both identifier sides interpreted relative to that user. Identifier
 * interpretation goes through the same domain.ClassifyAccountIdentifier the
 * orchestrators use; the ledger reader never re-implements the rule.
 */

package app

import (
	"context"
	"fmt"

	"github.com/horizonbank/transfer-service/internal/domain"
)

// ListAccounts returns the dashboard view of everything the user can hold a
// balance in: regular accounts plus approved applications presented as
// pseudo-accounts.
func (s *Service) ListAccounts(ctx context.Context, actor domain.User) ([]domain.AccountSummary, error) {
	accounts, err := s.repo.ListAccountsByUserID(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("account list failed: %w", err)
	}
	apps, err := s.repo.ListApprovedApplicationsByEmail(ctx, actor.Email)
	if err != nil {
		return nil, fmt.Errorf("application list failed: %w", err)
	}

	summaries := make([]domain.AccountSummary, 0, len(accounts)+len(apps))
	for _, a := range accounts {
		summaries = append(summaries, domain.AccountSummary{
			Identifier:    a.ID.String(),
			AccountNumber: a.AccountNumber,
			AccountType:   a.AccountType,
			Balance:       a.Balance,
		})
	}
	for _, app := range apps {
		summaries = append(summaries, domain.AccountSummary{
			Identifier:    domain.DerivedIdentifier(app.ApplicationType, app.ID),
			AccountNumber: domain.DerivedAccountNumber(app.ApplicationType, app.ID),
			AccountType:   app.ApplicationType,
			Balance:       app.Balance,
			Derived:       true,
		})
	}
	return summaries, nil
}

// ListTransactions returns the user's ledger rows, newest first, enriched
// with direction and display labels for both sides.
func (s *Service) ListTransactions(ctx context.Context, actor domain.User) ([]domain.EnrichedTransaction, error) {
	summaries, err := s.ListAccounts(ctx, actor)
	if err != nil {
		return nil, err
	}

	identifiers := make([]string, 0, len(summaries))
	owned := make(map[string]domain.AccountSummary, len(summaries))
	for _, summary := range summaries {
		identifiers = append(identifiers, summary.Identifier)
		owned[summary.Identifier] = summary
	}

	rows, err := s.repo.ListTransactionsForIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("ledger read failed: %w", err)
	}

	enriched := make([]domain.EnrichedTransaction, 0, len(rows))
	for _, tx := range rows {
		enriched = append(enriched, enrichTransaction(tx, owned))
	}
	return enriched, nil
}

// enrichTransaction interprets one ledger row relative to the set of
// identifiers the user owns.
func enrichTransaction(tx domain.Transaction, owned map[string]domain.AccountSummary) domain.EnrichedTransaction {
	_, fromMine := owned[tx.FromAccountID]
	_, toMine := owned[tx.ToAccountID]

	e := domain.EnrichedTransaction{
		Transaction: tx,
		FromDisplay: displayLabel(tx.FromAccountID, owned),
		ToDisplay:   displayLabel(tx.ToAccountID, owned),
	}

	switch {
	case fromMine && toMine:
		e.Direction = domain.DirectionInternal
		e.SignedAmount = 0
	case fromMine:
		e.Direction = domain.DirectionOutgoing
		e.SignedAmount = -tx.Amount
	default:
		e.Direction = domain.DirectionIncoming
		e.SignedAmount = tx.Amount
	}
	return e
}

// displayLabel renders one identifier side of a ledger row: the owner's
// account number when the side is theirs, a derived account number for
// foreign pseudo-accounts, the raw id otherwise.
func displayLabel(identifier string, owned map[string]domain.AccountSummary) string {
	if summary, ok := owned[identifier]; ok {
		return summary.AccountNumber
	}
	ref, ok := domain.ClassifyAccountIdentifier(identifier)
	if !ok {
		return domain.NoAccountSentinel
	}
	if ref.Kind == domain.KindDerived {
		return domain.DerivedAccountNumber(ref.ApplicationType, ref.ID)
	}
	return ref.ID
}
