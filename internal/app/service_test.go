package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/horizonbank/transfer-service/internal/domain"
	"github.com/horizonbank/transfer-service/internal/store"
)

// memoryRepo is an in-memory Repository used by the orchestrator tests. It
// embeds the interface so unrelated methods panic loudly when reached.
type memoryRepo struct {
	store.Repository

	users        []domain.User
	accounts     []*domain.Account
	applications []*domain.AccountApplication
	transactions []*domain.Transaction

	accountLocks     int
	applicationLocks int
	lockOrder        []uuid.UUID

	createTransactionErr error
}

type repoSnapshot struct {
	accounts     []*domain.Account
	applications []*domain.AccountApplication
	transactions []*domain.Transaction
}

func (m *memoryRepo) snapshot() repoSnapshot {
	snap := repoSnapshot{}
	for _, a := range m.accounts {
		copied := *a
		snap.accounts = append(snap.accounts, &copied)
	}
	for _, app := range m.applications {
		copied := *app
		snap.applications = append(snap.applications, &copied)
	}
	snap.transactions = append(snap.transactions, m.transactions...)
	return snap
}

func (m *memoryRepo) restore(snap repoSnapshot) {
	m.accounts = snap.accounts
	m.applications = snap.applications
	m.transactions = snap.transactions
}

func (m *memoryRepo) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for i := range m.users {
		if strings.EqualFold(strings.TrimSpace(m.users[i].Email), strings.TrimSpace(email)) {
			u := m.users[i]
			return &u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (m *memoryRepo) findAccount(accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error) {
	for _, a := range m.accounts {
		if a.ID == accountID && a.UserID == userID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memoryRepo) FindAccountForUser(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error) {
	return m.findAccount(accountID, userID)
}

func (m *memoryRepo) FindAccountForUserForUpdate(ctx context.Context, accountID uuid.UUID, userID uuid.UUID) (*domain.Account, error) {
	m.accountLocks++
	m.lockOrder = append(m.lockOrder, accountID)
	return m.findAccount(accountID, userID)
}

func (m *memoryRepo) FindCheckingAccountByUserID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	for _, a := range m.accounts {
		if a.UserID == userID && a.AccountType == "checking" {
			copied := *a
			return &copied, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (m *memoryRepo) ListAccountsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memoryRepo) ApplyAccountDelta(ctx context.Context, accountID uuid.UUID, delta int64) error {
	for _, a := range m.accounts {
		if a.ID == accountID {
			a.Balance += delta
			return nil
		}
	}
	return store.ErrAccountNotFound
}

func (m *memoryRepo) findApplication(applicationType, applicationID string) (*domain.AccountApplication, error) {
	for _, app := range m.applications {
		if app.ApplicationType == applicationType && app.ID == applicationID && app.Status == "approved" {
			copied := *app
			return &copied, nil
		}
	}
	return nil, store.ErrApplicationNotFound
}

func (m *memoryRepo) FindApprovedApplication(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error) {
	return m.findApplication(applicationType, applicationID)
}

func (m *memoryRepo) FindApprovedApplicationForUpdate(ctx context.Context, applicationType, applicationID string) (*domain.AccountApplication, error) {
	m.applicationLocks++
	return m.findApplication(applicationType, applicationID)
}

func (m *memoryRepo) SetApplicationBalance(ctx context.Context, applicationType, applicationID string, balance int64) error {
	for _, app := range m.applications {
		if app.ApplicationType == applicationType && app.ID == applicationID && app.Status == "approved" {
			app.Balance = balance
			return nil
		}
	}
	return store.ErrApplicationNotFound
}

func (m *memoryRepo) SetApplicationBalanceForEmail(ctx context.Context, applicationType, applicationID, email string, balance int64) error {
	for _, app := range m.applications {
		if app.ApplicationType == applicationType && app.ID == applicationID && app.Status == "approved" &&
			strings.EqualFold(strings.TrimSpace(app.Email), strings.TrimSpace(email)) {
			app.Balance = balance
			return nil
		}
	}
	return store.ErrApplicationNotFound
}

func (m *memoryRepo) FindApprovedCheckingApplicationByEmail(ctx context.Context, email string) (*domain.AccountApplication, error) {
	for _, wanted := range domain.CheckingApplicationTypes {
		for _, app := range m.applications {
			if app.ApplicationType == wanted && app.Status == "approved" &&
				strings.EqualFold(strings.TrimSpace(app.Email), strings.TrimSpace(email)) {
				copied := *app
				return &copied, nil
			}
		}
	}
	return nil, store.ErrApplicationNotFound
}

func (m *memoryRepo) ListApprovedApplicationsByEmail(ctx context.Context, email string) ([]domain.AccountApplication, error) {
	var out []domain.AccountApplication
	for _, app := range m.applications {
		if app.Status == "approved" && strings.EqualFold(strings.TrimSpace(app.Email), strings.TrimSpace(email)) {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *memoryRepo) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.createTransactionErr != nil {
		return m.createTransactionErr
	}
	copied := *tx
	m.transactions = append(m.transactions, &copied)
	return nil
}

func (m *memoryRepo) ListTransactionsForIdentifiers(ctx context.Context, identifiers []string) ([]domain.Transaction, error) {
	wanted := make(map[string]bool, len(identifiers))
	for _, id := range identifiers {
		wanted[id] = true
	}
	var out []domain.Transaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		tx := m.transactions[i]
		if wanted[tx.FromAccountID] || wanted[tx.ToAccountID] {
			out = append(out, *tx)
		}
	}
	return out, nil
}

// memoryTxManager mimics transactional semantics for the in-memory repo:
// state mutated inside fn is restored when fn fails.
type memoryTxManager struct {
	repo      *memoryRepo
	commits   int
	rollbacks int
}

func (m *memoryTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := m.repo.snapshot()
	if err := fn(ctx); err != nil {
		m.repo.restore(snap)
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

type recordingPublisher struct {
	exchanges   []string
	routingKeys []string
	bodies      []interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.exchanges = append(p.exchanges, exchange)
	p.routingKeys = append(p.routingKeys, routingKey)
	p.bodies = append(p.bodies, body)
	return nil
}

func (p *recordingPublisher) Close() {}

func newTestService(repo *memoryRepo) (*Service, *memoryTxManager, *recordingPublisher) {
	txm := &memoryTxManager{repo: repo}
	events := &recordingPublisher{}
	return NewService(repo, txm, events), txm, events
}

func TestTransfer_BetweenOwnAccounts(t *testing.T) {
	userID := uuid.New()
	c1 := &domain.Account{ID: uuid.New(), UserID: userID, AccountNumber: "CHK-001", AccountType: "checking", Balance: 1000}
	c2 := &domain.Account{ID: uuid.New(), UserID: userID, AccountNumber: "CHK-002", AccountType: "checking", Balance: 5000}
	repo := &memoryRepo{accounts: []*domain.Account{c1, c2}}
	svc, txm, events := newTestService(repo)

	actor := domain.User{ID: userID, Email: "alice@example.com"}
	txID, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: c1.ID.String(),
		ToAccountID:   c2.ID.String(),
		Amount:        200,
		Description:   "rent split",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txID == uuid.Nil {
		t.Fatal("expected a transaction id")
	}
	if c1.Balance != 800 {
		t.Fatalf("expected source balance 800, got %d", c1.Balance)
	}
	if c2.Balance != 5200 {
		t.Fatalf("expected destination balance 5200, got %d", c2.Balance)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", len(repo.transactions))
	}
	row := repo.transactions[0]
	if row.FromAccountID != c1.ID.String() || row.ToAccountID != c2.ID.String() {
		t.Fatalf("ledger row has wrong endpoints: %s -> %s", row.FromAccountID, row.ToAccountID)
	}
	if row.Type != domain.TxTypeTransfer || row.Status != domain.TxStatusCompleted {
		t.Fatalf("expected completed transfer row, got type=%s status=%s", row.Type, row.Status)
	}
	if txm.commits != 1 || txm.rollbacks != 0 {
		t.Fatalf("expected one commit and no rollbacks, got %d/%d", txm.commits, txm.rollbacks)
	}
	if repo.accountLocks != 2 {
		t.Fatalf("expected both sides resolved with row locks, got %d", repo.accountLocks)
	}
	if len(events.routingKeys) != 1 || events.routingKeys[0] != "transfer.completed" {
		t.Fatalf("expected one transfer.completed event, got %v", events.routingKeys)
	}
	if events.exchanges[0] != TransferEventExchange {
		t.Fatalf("expected exchange %s, got %s", TransferEventExchange, events.exchanges[0])
	}
}

func TestTransfer_LocksAccountsInIdentifierOrder(t *testing.T) {
	userID := uuid.New()
	low := &domain.Account{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), UserID: userID, AccountNumber: "CHK-001", AccountType: "checking", Balance: 1000}
	high := &domain.Account{ID: uuid.MustParse("ffffffff-ffff-4fff-8fff-ffffffffffff"), UserID: userID, AccountNumber: "CHK-002", AccountType: "checking", Balance: 1000}
	actor := domain.User{ID: userID, Email: "alice@example.com"}

	// Whichever direction the request names, the lower identifier is
	// locked first so opposite-direction transfers cannot deadlock.
	for _, req := range []domain.TransferRequest{
		{FromAccountID: low.ID.String(), ToAccountID: high.ID.String(), Amount: 200},
		{FromAccountID: high.ID.String(), ToAccountID: low.ID.String(), Amount: 200},
	} {
		low.Balance, high.Balance = 1000, 1000
		repo := &memoryRepo{accounts: []*domain.Account{low, high}}
		svc, _, _ := newTestService(repo)

		if _, err := svc.Transfer(context.Background(), actor, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(repo.lockOrder) != 2 {
			t.Fatalf("expected two row locks, got %d", len(repo.lockOrder))
		}
		if repo.lockOrder[0] != low.ID || repo.lockOrder[1] != high.ID {
			t.Fatalf("expected locks in identifier order, got %v", repo.lockOrder)
		}
		row := repo.transactions[0]
		if row.FromAccountID != req.FromAccountID || row.ToAccountID != req.ToAccountID {
			t.Fatalf("ledger row has wrong endpoints: %s -> %s", row.FromAccountID, row.ToAccountID)
		}
	}
	if low.Balance != 1200 || high.Balance != 800 {
		t.Fatalf("expected balances 1200/800 after the reverse transfer, got %d/%d", low.Balance, high.Balance)
	}
}

func TestTransfer_FromDerivedAccount(t *testing.T) {
	userID := uuid.New()
	appID := uuid.NewString()
	app := &domain.AccountApplication{ID: appID, ApplicationType: "premium_savings", Email: "alice@example.com", Status: "approved", Balance: 500}
	account := &domain.Account{ID: uuid.New(), UserID: userID, AccountType: "checking", Balance: 100}
	repo := &memoryRepo{accounts: []*domain.Account{account}, applications: []*domain.AccountApplication{app}}
	svc, _, _ := newTestService(repo)

	actor := domain.User{ID: userID, Email: "alice@example.com"}
	_, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: domain.DerivedIdentifier("premium_savings", appID),
		ToAccountID:   account.ID.String(),
		Amount:        300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.Balance != 200 {
		t.Fatalf("expected application balance 200, got %d", app.Balance)
	}
	if account.Balance != 400 {
		t.Fatalf("expected account balance 400, got %d", account.Balance)
	}
	if repo.applicationLocks == 0 {
		t.Fatal("expected the application row to be locked before the funds check")
	}
}

func TestTransfer_InsufficientFundsFromDerived(t *testing.T) {
	userID := uuid.New()
	appID := uuid.NewString()
	app := &domain.AccountApplication{ID: appID, ApplicationType: "basic_savings", Email: "alice@example.com", Status: "approved", Balance: 500}
	account := &domain.Account{ID: uuid.New(), UserID: userID, AccountType: "checking", Balance: 100}
	repo := &memoryRepo{accounts: []*domain.Account{account}, applications: []*domain.AccountApplication{app}}
	svc, txm, events := newTestService(repo)

	actor := domain.User{ID: userID, Email: "alice@example.com"}
	_, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: domain.DerivedIdentifier("basic_savings", appID),
		ToAccountID:   account.ID.String(),
		Amount:        600,
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if app.Balance != 500 || account.Balance != 100 {
		t.Fatalf("balances must be unchanged, got app=%d account=%d", app.Balance, account.Balance)
	}
	if len(repo.transactions) != 0 {
		t.Fatalf("expected no ledger rows, got %d", len(repo.transactions))
	}
	if txm.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", txm.rollbacks)
	}
	if len(events.routingKeys) != 0 {
		t.Fatalf("expected no events, got %v", events.routingKeys)
	}
}

func TestTransfer_Validation(t *testing.T) {
	accountID := uuid.NewString()
	tests := []struct {
		name string
		req  domain.TransferRequest
	}{
		{
			name: "missing source",
			req:  domain.TransferRequest{ToAccountID: accountID, Amount: 100},
		},
		{
			name: "missing destination",
			req:  domain.TransferRequest{FromAccountID: accountID, Amount: 100},
		},
		{
			name: "zero amount",
			req:  domain.TransferRequest{FromAccountID: accountID, ToAccountID: uuid.NewString(), Amount: 0},
		},
		{
			name: "negative amount",
			req:  domain.TransferRequest{FromAccountID: accountID, ToAccountID: uuid.NewString(), Amount: -50},
		},
		{
			name: "source equals destination",
			req:  domain.TransferRequest{FromAccountID: accountID, ToAccountID: accountID, Amount: 100},
		},
	}

	svc, txm, _ := newTestService(&memoryRepo{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(context.Background(), domain.User{ID: uuid.New(), Email: "a@b.c"}, tt.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if txm.commits != 0 {
		t.Fatalf("validation failures must not open transactions that commit, got %d commits", txm.commits)
	}
}

func TestTransfer_ForeignAccountIsForbidden(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	account := &domain.Account{ID: uuid.New(), UserID: owner, AccountType: "checking", Balance: 1000}
	mine := &domain.Account{ID: uuid.New(), UserID: stranger, AccountType: "checking", Balance: 1000}
	repo := &memoryRepo{accounts: []*domain.Account{account, mine}}
	svc, _, _ := newTestService(repo)

	actor := domain.User{ID: stranger, Email: "mallory@example.com"}
	_, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: account.ID.String(),
		ToAccountID:   mine.ID.String(),
		Amount:        100,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if account.Balance != 1000 || mine.Balance != 1000 {
		t.Fatal("balances must be unchanged")
	}
}

func TestTransfer_DerivedOwnershipGatedByEmail(t *testing.T) {
	userID := uuid.New()
	appID := uuid.NewString()
	app := &domain.AccountApplication{ID: appID, ApplicationType: "basic_checking", Email: "victim@example.com", Status: "approved", Balance: 900}
	account := &domain.Account{ID: uuid.New(), UserID: userID, AccountType: "checking", Balance: 100}
	repo := &memoryRepo{accounts: []*domain.Account{account}, applications: []*domain.AccountApplication{app}}
	svc, _, _ := newTestService(repo)

	actor := domain.User{ID: userID, Email: "mallory@example.com"}
	_, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: domain.DerivedIdentifier("basic_checking", appID),
		ToAccountID:   account.ID.String(),
		Amount:        100,
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if app.Balance != 900 {
		t.Fatalf("application balance must be unchanged, got %d", app.Balance)
	}
}

func TestTransfer_RollbackOnLedgerFailure(t *testing.T) {
	userID := uuid.New()
	c1 := &domain.Account{ID: uuid.New(), UserID: userID, AccountType: "checking", Balance: 1000}
	c2 := &domain.Account{ID: uuid.New(), UserID: userID, AccountType: "savings", Balance: 5000}
	repo := &memoryRepo{
		accounts:             []*domain.Account{c1, c2},
		createTransactionErr: errors.New("ledger insert refused"),
	}
	svc, txm, events := newTestService(repo)

	actor := domain.User{ID: userID, Email: "alice@example.com"}
	_, err := svc.Transfer(context.Background(), actor, domain.TransferRequest{
		FromAccountID: c1.ID.String(),
		ToAccountID:   c2.ID.String(),
		Amount:        200,
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if repo.accounts[0].Balance != 1000 || repo.accounts[1].Balance != 5000 {
		t.Fatalf("expected rollback to restore balances, got %d/%d", repo.accounts[0].Balance, repo.accounts[1].Balance)
	}
	if txm.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", txm.rollbacks)
	}
	if len(events.routingKeys) != 0 {
		t.Fatal("no event may be published for a rolled-back transfer")
	}
}

func TestSendMoney_PrefersDerivedCheckingDestination(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	recipient := domain.User{ID: uuid.New(), Email: "bob@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 1000}
	recipientAccount := &domain.Account{ID: uuid.New(), UserID: recipient.ID, AccountType: "checking", Balance: 50}
	appID := uuid.NewString()
	recipientApp := &domain.AccountApplication{ID: appID, ApplicationType: "premium_checking", Email: "bob@example.com", Status: "approved", Balance: 300}
	repo := &memoryRepo{
		users:        []domain.User{recipient},
		accounts:     []*domain.Account{source, recipientAccount},
		applications: []*domain.AccountApplication{recipientApp},
	}
	svc, _, _ := newTestService(repo)

	txID, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "bob@example.com",
		Amount:        100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txID == uuid.Nil {
		t.Fatal("expected a transaction id")
	}
	if recipientApp.Balance != 400 {
		t.Fatalf("expected derived destination credited to 400, got %d", recipientApp.Balance)
	}
	if recipientAccount.Balance != 50 {
		t.Fatalf("regular account must not be credited when a derived destination exists, got %d", recipientAccount.Balance)
	}
	if source.Balance != 900 {
		t.Fatalf("expected source debited to 900, got %d", source.Balance)
	}
	if len(repo.transactions) != 1 {
		t.Fatalf("expected one ledger row, got %d", len(repo.transactions))
	}
	wantDestination := domain.DerivedIdentifier("premium_checking", appID)
	if repo.transactions[0].ToAccountID != wantDestination {
		t.Fatalf("expected ledger destination %s, got %s", wantDestination, repo.transactions[0].ToAccountID)
	}
}

func TestSendMoney_FallsBackToRegularChecking(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	recipient := domain.User{ID: uuid.New(), Email: "bob@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 1000}
	recipientAccount := &domain.Account{ID: uuid.New(), UserID: recipient.ID, AccountType: "checking", Balance: 50}
	repo := &memoryRepo{
		users:    []domain.User{recipient},
		accounts: []*domain.Account{source, recipientAccount},
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "Bob@Example.com",
		Amount:        250,
		Description:   "lunch",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recipientAccount.Balance != 300 {
		t.Fatalf("expected recipient account credited to 300, got %d", recipientAccount.Balance)
	}
	if source.Balance != 750 {
		t.Fatalf("expected source debited to 750, got %d", source.Balance)
	}
	if repo.transactions[0].Description != "lunch" {
		t.Fatalf("expected caller description kept, got %q", repo.transactions[0].Description)
	}
}

func TestSendMoney_DefaultDescription(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	recipient := domain.User{ID: uuid.New(), Email: "bob@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 1000}
	recipientAccount := &domain.Account{ID: uuid.New(), UserID: recipient.ID, AccountType: "checking", Balance: 0}
	repo := &memoryRepo{
		users:    []domain.User{recipient},
		accounts: []*domain.Account{source, recipientAccount},
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "bob@example.com",
		Amount:        100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.transactions[0].Description; got != "Payment to bob@example.com" {
		t.Fatalf("expected default description, got %q", got)
	}
}

func TestSendMoney_RecipientNotFound(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 1000}
	repo := &memoryRepo{accounts: []*domain.Account{source}}
	svc, _, _ := newTestService(repo)

	_, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "ghost@example.com",
		Amount:        100,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if source.Balance != 1000 {
		t.Fatal("source balance must be unchanged")
	}
}

func TestSendMoney_RecipientWithoutDestination(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	recipient := domain.User{ID: uuid.New(), Email: "bob@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 1000}
	// Recipient exists but owns neither a checking account nor an approved
	// checking application.
	savings := &domain.Account{ID: uuid.New(), UserID: recipient.ID, AccountType: "savings", Balance: 500}
	repo := &memoryRepo{
		users:    []domain.User{recipient},
		accounts: []*domain.Account{source, savings},
	}
	svc, _, _ := newTestService(repo)

	_, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "bob@example.com",
		Amount:        100,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSendMoney_InsufficientFunds(t *testing.T) {
	sender := domain.User{ID: uuid.New(), Email: "alice@example.com"}
	recipient := domain.User{ID: uuid.New(), Email: "bob@example.com"}
	source := &domain.Account{ID: uuid.New(), UserID: sender.ID, AccountType: "checking", Balance: 50}
	recipientAccount := &domain.Account{ID: uuid.New(), UserID: recipient.ID, AccountType: "checking", Balance: 0}
	repo := &memoryRepo{
		users:    []domain.User{recipient},
		accounts: []*domain.Account{source, recipientAccount},
	}
	svc, txm, _ := newTestService(repo)

	_, err := svc.SendMoney(context.Background(), sender, domain.SendMoneyRequest{
		FromAccountID: source.ID.String(),
		ToEmail:       "bob@example.com",
		Amount:        100,
	})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if source.Balance != 50 || recipientAccount.Balance != 0 {
		t.Fatal("balances must be unchanged")
	}
	if txm.rollbacks != 1 {
		t.Fatalf("expected one rollback, got %d", txm.rollbacks)
	}
}
