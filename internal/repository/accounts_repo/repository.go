package accounts_repo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"bank/internal/domain"
)

// ErrNoMatch is returned by AdjustBalanceTx when no row satisfied the guarded
// update. The store cannot tell an absent account from a failed guard; callers
// that need the distinction do a diagnostic lookup afterwards.
var ErrNoMatch = errors.New("no account matched the guarded update")

// BalanceGuard constrains a conditional balance adjustment.
type BalanceGuard int

const (
	// GuardAlways applies the adjustment whenever the account exists. Used
	// for credits, which have no precondition on the recipient balance.
	GuardAlways BalanceGuard = iota
	// GuardNonNegative applies the adjustment only if the resulting balance
	// stays non-negative. Used for debits to rule out overdrafts.
	GuardNonNegative
)

type AccountRepository interface {
	CreateTx(ctx context.Context, q domain.Querier, account *domain.Account) error
	GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error)
	GetByEmailTx(ctx context.Context, q domain.Querier, email string) (*domain.Account, error)

	// AdjustBalanceTx atomically applies delta to the account balance when
	// the guard holds and returns the account as of after the mutation. The
	// guard is evaluated by the store in the same statement as the mutation;
	// this is the only sanctioned way to change a balance.
	AdjustBalanceTx(ctx context.Context, q domain.Querier, accountID string, delta decimal.Decimal, guard BalanceGuard, now time.Time) (*domain.Account, error)
}
