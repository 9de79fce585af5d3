package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/repository/accounts_repo"
	"bank/internal/util"
)

// AccountService opens accounts and serves the profile read path.
type AccountService interface {
	Open(ctx context.Context, email, ownerName, currency string) (*domain.Account, error)
	Get(ctx context.Context, id string) (*domain.Account, error)
}

type accountService struct {
	db             domain.Querier
	runner         domain.TxRunner
	accounts       accounts_repo.AccountRepository
	openingBalance decimal.Decimal
	logger         *zap.Logger
}

func NewAccountService(
	db domain.Querier,
	runner domain.TxRunner,
	accounts accounts_repo.AccountRepository,
	openingBalance decimal.Decimal,
	logger *zap.Logger,
) AccountService {
	return &accountService{
		db:             db,
		runner:         runner,
		accounts:       accounts,
		openingBalance: openingBalance,
		logger:         logger,
	}
}

func (s *accountService) Open(ctx context.Context, email, ownerName, currency string) (*domain.Account, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, domain.ValidationError("email is required")
	}
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		return nil, domain.ValidationError("owner name is required")
	}
	if currency == "" {
		currency = "USD"
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        util.NewID(),
		Email:     email,
		OwnerName: ownerName,
		Currency:  currency,
		Balance:   s.openingBalance,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Email uniqueness is a storage constraint; the insert either lands the
	// whole account row with its opening balance or nothing.
	err := s.runner.WithinTx(ctx, func(q domain.Querier) error {
		return s.accounts.CreateTx(ctx, q, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("account opened",
		zap.String("account_id", account.ID),
		zap.String("balance", account.Balance.String()),
	)
	return account, nil
}

func (s *accountService) Get(ctx context.Context, id string) (*domain.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ValidationError("account id is required")
	}
	return s.accounts.GetByIDTx(ctx, s.db, id)
}
