package transactions_repo

import (
	"context"

	"bank/internal/domain"
)

type TransactionRepository interface {
	// AppendBatchTx inserts the given ledger entries as one statement inside
	// the caller's unit of work, assigning ids, and returns the ids in input
	// order. Either all entries become visible together at commit or none do.
	AppendBatchTx(ctx context.Context, q domain.Querier, entries []*domain.Transaction) ([]string, error)

	// ListByAccountTx returns entries for the account ordered newest-first
	// together with the total count for the account.
	ListByAccountTx(ctx context.Context, q domain.Querier, accountID string, offset, limit int) ([]domain.Transaction, int64, error)

	// GetByIDForAccountTx looks up one entry scoped to the owning account;
	// an entry id alone never resolves another account's record.
	GetByIDForAccountTx(ctx context.Context, q domain.Querier, id, accountID string) (*domain.Transaction, error)
}
