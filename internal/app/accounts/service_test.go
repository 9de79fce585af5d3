package accounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) CreateTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return domain.ErrAccountExists
		}
	}
	copied := *account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *fakeAccountRepo) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *fakeAccountRepo) GetByEmailTx(ctx context.Context, q domain.Querier, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, account := range r.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) AdjustBalanceTx(ctx context.Context, q domain.Querier, accountID string, delta decimal.Decimal, guard accounts_repo.BalanceGuard, now time.Time) (*domain.Account, error) {
	return nil, accounts_repo.ErrNoMatch
}

type passthroughRunner struct{}

func (passthroughRunner) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	return fn(nil)
}

func newTestService(repo *fakeAccountRepo) AccountService {
	return NewAccountService(nil, passthroughRunner{}, repo, decimal.RequireFromString("800.00"), zap.NewNop())
}

func TestOpenAccount(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo)

	account, err := svc.Open(context.Background(), "  Alice@Example.COM ", "Alice", "")
	require.NoError(t, err)

	require.NotEmpty(t, account.ID)
	require.Equal(t, "alice@example.com", account.Email, "email must be normalized before storage")
	require.Equal(t, "USD", account.Currency)
	require.Equal(t, domain.AccountStatusActive, account.Status)
	require.True(t, account.Balance.Equal(decimal.RequireFromString("800.00")))

	stored, err := svc.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, account.Email, stored.Email)
}

func TestOpenAccountDuplicateEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	svc := newTestService(repo)

	_, err := svc.Open(context.Background(), "alice@example.com", "Alice", "USD")
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), "ALICE@example.com", "Another Alice", "USD")
	require.ErrorIs(t, err, domain.ErrAccountExists)
}

func TestOpenAccountValidation(t *testing.T) {
	svc := newTestService(newFakeAccountRepo())

	_, err := svc.Open(context.Background(), "  ", "Alice", "USD")
	require.Equal(t, "VALIDATION_ERROR", domain.CodeOf(err))

	_, err = svc.Open(context.Background(), "alice@example.com", "  ", "USD")
	require.Equal(t, "VALIDATION_ERROR", domain.CodeOf(err))
}

func TestGetAccountNotFound(t *testing.T) {
	svc := newTestService(newFakeAccountRepo())

	_, err := svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}
