package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
)

type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

var _ accounts_repo.AccountRepository = (*AccountRepository)(nil)

const accountColumns = "id, email, owner_name, currency, balance, status, created_at, updated_at"

func (r *AccountRepository) CreateTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, owner_name, currency, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.ExecContext(ctx, query,
		account.ID, account.Email, account.OwnerName, account.Currency,
		account.Balance, account.Status, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("failed to create account %s: %w", account.ID, err)
	}
	return nil
}

func (r *AccountRepository) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	account, err := scanAccount(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return account, nil
}

func (r *AccountRepository) GetByEmailTx(ctx context.Context, q domain.Querier, email string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	account, err := scanAccount(q.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) AdjustBalanceTx(ctx context.Context, q domain.Querier, accountID string, delta decimal.Decimal, guard accounts_repo.BalanceGuard, now time.Time) (*domain.Account, error) {
	// The guard is part of the UPDATE's WHERE clause so the precondition and
	// the mutation are a single atomic statement. A separate read would race
	// with concurrent transfers touching the same account.
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = $2
		WHERE id = $3
	`
	if guard == accounts_repo.GuardNonNegative {
		query += ` AND balance + $1 >= 0`
	}
	query += ` RETURNING ` + accountColumns

	account, err := scanAccount(q.QueryRowContext(ctx, query, delta, now, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, accounts_repo.ErrNoMatch
		}
		return nil, fmt.Errorf("failed to adjust balance for account %s: %w", accountID, err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	account := &domain.Account{}
	var status string
	err := row.Scan(
		&account.ID,
		&account.Email,
		&account.OwnerName,
		&account.Currency,
		&account.Balance,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Status = domain.AccountStatus(status)
	return account, nil
}
