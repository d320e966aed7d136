/**
 * @description
 * Account resolution: turning an opaque identifier plus the acting user's
 * identity into a concrete balance-bearing record. The classification rule
 * itself lives in internal/domain (ClassifyAccountIdentifier); this file
 * adds the ownership checks and the database lookups.
 *
 * Resolution is a pure read. Callers that go on to mutate the balance pass
 * lock=true so the row stays locked for the remainder of the surrounding
 * transaction; the balance snapshot on the returned ResolvedAccount is then
 * safe to use for the read-modify-write on derived accounts.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/horizonbank/transfer-service/internal/domain"
	"github.com/horizonbank/transfer-service/internal/store"
)

func equalFoldEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Resolver resolves account identifiers against the database.
type Resolver struct {
	repo store.Repository
}

// NewResolver creates a new Resolver.
func NewResolver(repo store.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve classifies the identifier and loads the record it denotes,
// enforcing ownership: a regular account must belong to userID, a derived
// account's application email must match the acting user's email. Both
// "doesn't exist" and "exists but not yours" come back as ErrForbidden.
func (r *Resolver) Resolve(ctx context.Context, identifier string, userID uuid.UUID, email string, lock bool) (*domain.ResolvedAccount, error) {
	ref, ok := domain.ClassifyAccountIdentifier(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrForbidden, identifier)
	}

	if ref.Kind == domain.KindDerived {
		return r.resolveDerived(ctx, ref, email, lock)
	}
	return r.resolveRegular(ctx, ref, userID, lock)
}

func (r *Resolver) resolveDerived(ctx context.Context, ref domain.AccountRef, email string, lock bool) (*domain.ResolvedAccount, error) {
	find := r.repo.FindApprovedApplication
	if lock {
		find = r.repo.FindApprovedApplicationForUpdate
	}

	app, err := find(ctx, ref.ApplicationType, ref.ID)
	if err != nil {
		if errors.Is(err, store.ErrApplicationNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrForbidden, domain.DerivedIdentifier(ref.ApplicationType, ref.ID))
		}
		return nil, fmt.Errorf("application lookup failed: %w", err)
	}
	if !equalFoldEmail(app.Email, email) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, domain.DerivedIdentifier(ref.ApplicationType, ref.ID))
	}

	return &domain.ResolvedAccount{
		Kind:            domain.KindDerived,
		Identifier:      domain.DerivedIdentifier(app.ApplicationType, app.ID),
		ApplicationID:   app.ID,
		ApplicationType: app.ApplicationType,
		AccountNumber:   domain.DerivedAccountNumber(app.ApplicationType, app.ID),
		Balance:         app.Balance,
	}, nil
}

func (r *Resolver) resolveRegular(ctx context.Context, ref domain.AccountRef, userID uuid.UUID, lock bool) (*domain.ResolvedAccount, error) {
	accountID, err := uuid.Parse(ref.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrForbidden, ref.ID)
	}

	find := r.repo.FindAccountForUser
	if lock {
		find = r.repo.FindAccountForUserForUpdate
	}

	account, err := find(ctx, accountID, userID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrForbidden, accountID)
		}
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}

	return &domain.ResolvedAccount{
		Kind:          domain.KindRegular,
		Identifier:    account.ID.String(),
		AccountID:     account.ID,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance,
	}, nil
}
