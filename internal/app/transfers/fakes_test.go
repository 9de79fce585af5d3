package transfers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
	"bank/internal/util"
)

// fakeStore backs the coordinator tests with in-memory state implementing
// the account, transaction and outbox repository contracts. Methods do not
// lock: mutual exclusion comes from fakeTxRunner, mirroring how the real
// store serializes conflicting units of work.
type fakeStore struct {
	accounts map[string]*domain.Account
	entries  []domain.Transaction
	outbox   []domain.OutboxMessage

	failCredit bool
	appendErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]*domain.Account)}
}

func (s *fakeStore) addAccount(id, email string, balance string) *domain.Account {
	account := &domain.Account{
		ID:       id,
		Email:    email,
		Currency: "USD",
		Balance:  decimal.RequireFromString(balance),
		Status:   domain.AccountStatusActive,
	}
	s.accounts[id] = account
	return account
}

type storeSnapshot struct {
	accounts map[string]domain.Account
	entries  []domain.Transaction
	outbox   []domain.OutboxMessage
}

func (s *fakeStore) snapshot() storeSnapshot {
	sn := storeSnapshot{accounts: make(map[string]domain.Account, len(s.accounts))}
	for id, account := range s.accounts {
		sn.accounts[id] = *account
	}
	sn.entries = append(sn.entries, s.entries...)
	sn.outbox = append(sn.outbox, s.outbox...)
	return sn
}

func (s *fakeStore) restore(sn storeSnapshot) {
	s.accounts = make(map[string]*domain.Account, len(sn.accounts))
	for id := range sn.accounts {
		account := sn.accounts[id]
		s.accounts[id] = &account
	}
	s.entries = sn.entries
	s.outbox = sn.outbox
}

// fakeTxRunner serializes units of work under one mutex and rolls every
// effect back when fn fails, matching the atomicity the database gives the
// real coordinator.
type fakeTxRunner struct {
	mu    sync.Mutex
	store *fakeStore
}

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	sn := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(sn)
		return err
	}
	return nil
}

func (s *fakeStore) CreateTx(ctx context.Context, q domain.Querier, account *domain.Account) error {
	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return domain.ErrAccountExists
		}
	}
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *fakeStore) GetByIDTx(ctx context.Context, q domain.Querier, id string) (*domain.Account, error) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *fakeStore) GetByEmailTx(ctx context.Context, q domain.Querier, email string) (*domain.Account, error) {
	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *fakeStore) AdjustBalanceTx(ctx context.Context, q domain.Querier, accountID string, delta decimal.Decimal, guard accounts_repo.BalanceGuard, now time.Time) (*domain.Account, error) {
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, accounts_repo.ErrNoMatch
	}
	if s.failCredit && delta.Sign() > 0 {
		return nil, accounts_repo.ErrNoMatch
	}
	next := account.Balance.Add(delta)
	if guard == accounts_repo.GuardNonNegative && next.Sign() < 0 {
		return nil, accounts_repo.ErrNoMatch
	}
	account.Balance = next
	account.UpdatedAt = now
	copied := *account
	return &copied, nil
}

func (s *fakeStore) AppendBatchTx(ctx context.Context, q domain.Querier, entries []*domain.Transaction) ([]string, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	var ids []string
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = util.NewID()
		}
		ids = append(ids, entry.ID)
		s.entries = append(s.entries, *entry)
	}
	return ids, nil
}

func (s *fakeStore) ListByAccountTx(ctx context.Context, q domain.Querier, accountID string, offset, limit int) ([]domain.Transaction, int64, error) {
	var matched []domain.Transaction
	for _, entry := range s.entries {
		if entry.AccountID == accountID {
			matched = append(matched, entry)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *fakeStore) GetByIDForAccountTx(ctx context.Context, q domain.Querier, id, accountID string) (*domain.Transaction, error) {
	for _, entry := range s.entries {
		if entry.ID == id && entry.AccountID == accountID {
			copied := entry
			return &copied, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (s *fakeStore) CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error {
	s.outbox = append(s.outbox, *msg)
	return nil
}

func (s *fakeStore) GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error) {
	var pending []domain.OutboxMessage
	for _, msg := range s.outbox {
		if msg.Status == domain.OutboxStatusPending && len(pending) < limit {
			pending = append(pending, msg)
		}
	}
	return pending, nil
}

func (s *fakeStore) MarkMessagesAsSent(ctx context.Context, q domain.Querier, ids []string) error {
	return s.markMessages(ids, domain.OutboxStatusSent)
}

func (s *fakeStore) MarkMessagesAsFailed(ctx context.Context, q domain.Querier, ids []string) error {
	return s.markMessages(ids, domain.OutboxStatusFailed)
}

func (s *fakeStore) markMessages(ids []string, status domain.OutboxMessageStatus) error {
	for _, id := range ids {
		for i := range s.outbox {
			if s.outbox[i].ID == id {
				s.outbox[i].Status = status
			}
		}
	}
	return nil
}
