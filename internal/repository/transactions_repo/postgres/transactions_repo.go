package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"bank/internal/domain"
	"bank/internal/repository/transactions_repo"
	"bank/internal/util"
)

type TransactionRepository struct{}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{}
}

var _ transactions_repo.TransactionRepository = (*TransactionRepository)(nil)

const transactionColumns = "id, account_id, counterparty_email, type, direction, amount, description, occurred_at, balance_after, status, fee, reference, metadata"

func (r *TransactionRepository) AppendBatchTx(ctx context.Context, q domain.Querier, entries []*domain.Transaction) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	var (
		placeholders []string
		args         []interface{}
		ids          []string
	)
	for i, entry := range entries {
		if entry.ID == "" {
			entry.ID = util.NewID()
		}
		ids = append(ids, entry.ID)

		base := i * 13
		placeholders = append(placeholders, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+12, base+13))
		args = append(args,
			entry.ID,
			entry.AccountID,
			nullString(entry.CounterpartyEmail),
			entry.Type,
			entry.Direction,
			entry.Amount,
			nullString(entry.Description),
			entry.Timestamp,
			entry.BalanceAfter,
			entry.Status,
			nullDecimal(entry.Fee),
			nullString(entry.Reference),
			nullBytes(entry.Metadata),
		)
	}

	query := `INSERT INTO transactions (` + transactionColumns + `) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to append %d ledger entries: %w", len(entries), err)
	}
	return ids, nil
}

func (r *TransactionRepository) ListByAccountTx(ctx context.Context, q domain.Querier, accountID string, offset, limit int) ([]domain.Transaction, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE account_id = $1`
	if err := q.QueryRowContext(ctx, countQuery, accountID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for account %s: %w", accountID, err)
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY occurred_at DESC, id DESC
		OFFSET $2 LIMIT $3
	`
	rows, err := q.QueryContext(ctx, query, accountID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		entry, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating transactions: %w", err)
	}
	return entries, total, nil
}

func (r *TransactionRepository) GetByIDForAccountTx(ctx context.Context, q domain.Querier, id, accountID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND account_id = $2`
	entry, err := scanTransaction(q.QueryRowContext(ctx, query, id, accountID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction %s: %w", id, err)
	}
	return entry, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	entry := &domain.Transaction{}
	var (
		counterparty sql.NullString
		description  sql.NullString
		reference    sql.NullString
		fee          decimal.NullDecimal
		metadata     []byte
		txType       string
		direction    string
		status       string
	)
	err := row.Scan(
		&entry.ID,
		&entry.AccountID,
		&counterparty,
		&txType,
		&direction,
		&entry.Amount,
		&description,
		&entry.Timestamp,
		&entry.BalanceAfter,
		&status,
		&fee,
		&reference,
		&metadata,
	)
	if err != nil {
		return nil, err
	}
	entry.CounterpartyEmail = counterparty.String
	entry.Type = domain.TransactionType(txType)
	entry.Direction = domain.TransactionDirection(direction)
	entry.Description = description.String
	entry.Status = domain.TransactionStatus(status)
	entry.Reference = reference.String
	entry.Metadata = metadata
	if fee.Valid {
		entry.Fee = &fee.Decimal
	}
	return entry, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullDecimal(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return *d
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
