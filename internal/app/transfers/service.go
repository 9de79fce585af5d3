package transfers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bank/internal/domain"
	"bank/internal/metrics"
	"bank/internal/repository/accounts_repo"
	"bank/internal/repository/outbox_repo"
	"bank/internal/repository/transactions_repo"
	"bank/internal/util"
)

// TransferService is the transfer coordinator plus the read path over the
// transaction log. A transfer either fully happens (debit, credit, two ledger
// entries, one outbox event) or fully does not.
type TransferService interface {
	Transfer(ctx context.Context, senderID, recipientEmail string, amount decimal.Decimal, description string) (*TransferResult, error)
	ListTransactions(ctx context.Context, accountID string, offset, limit int) ([]domain.Transaction, int64, error)
	GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error)
}

type TransferResult struct {
	Status                 domain.TransactionStatus
	SenderTransactionID    string
	RecipientTransactionID string
	RecipientEmail         string
	Amount                 decimal.Decimal
	Timestamp              time.Time
}

type transferService struct {
	db           domain.Querier
	runner       domain.TxRunner
	accounts     accounts_repo.AccountRepository
	transactions transactions_repo.TransactionRepository
	outbox       outbox_repo.OutboxRepository
	topic        string
	timeout      time.Duration
	metrics      *metrics.Collector
	logger       *zap.Logger
}

func NewTransferService(
	db domain.Querier,
	runner domain.TxRunner,
	accounts accounts_repo.AccountRepository,
	transactions transactions_repo.TransactionRepository,
	outbox outbox_repo.OutboxRepository,
	topic string,
	timeout time.Duration,
	collector *metrics.Collector,
	logger *zap.Logger,
) TransferService {
	return &transferService{
		db:           db,
		runner:       runner,
		accounts:     accounts,
		transactions: transactions,
		outbox:       outbox,
		topic:        topic,
		timeout:      timeout,
		metrics:      collector,
		logger:       logger,
	}
}

func (s *transferService) Transfer(ctx context.Context, senderID, recipientEmail string, amount decimal.Decimal, description string) (*TransferResult, error) {
	start := time.Now()
	result, err := s.transfer(ctx, senderID, recipientEmail, amount, description)

	outcome := "COMPLETED"
	if err != nil {
		outcome = domain.CodeOf(err)
	}
	s.metrics.RecordTransfer(outcome, time.Since(start))

	return result, err
}

func (s *transferService) transfer(ctx context.Context, senderID, recipientEmail string, amount decimal.Decimal, description string) (*TransferResult, error) {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return nil, domain.ValidationError("sender account id is required")
	}
	// Upstream validation is not trusted: amount positivity and precision are
	// re-checked here before any storage is touched.
	if !domain.ValidAmount(amount) {
		return nil, domain.ValidationError("amount must be positive with at most two decimal places")
	}
	email := domain.NormalizeEmail(recipientEmail)
	if email == "" {
		return nil, domain.ValidationError("recipient email is required")
	}
	description = domain.TruncateDescription(description)

	// The whole unit of work is bounded; on expiry the transaction aborts
	// and rolls back rather than staying open.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var result *TransferResult
	err := s.runner.WithinTx(ctx, func(q domain.Querier) error {
		result = nil
		now := time.Now().UTC()

		// Guarded atomic debit: exists AND balance >= amount, checked and
		// applied in one store operation.
		senderAfter, err := s.accounts.AdjustBalanceTx(ctx, q, senderID, amount.Neg(), accounts_repo.GuardNonNegative, now)
		if err != nil {
			if errors.Is(err, accounts_repo.ErrNoMatch) {
				// Diagnostic lookup to tell the two no-match causes apart.
				// Never used to retry the debit.
				if _, lookupErr := s.accounts.GetByIDTx(ctx, q, senderID); lookupErr != nil {
					if errors.Is(lookupErr, domain.ErrAccountNotFound) {
						return domain.ErrSenderNotFound
					}
					return lookupErr
				}
				return domain.ErrInsufficientFunds
			}
			return err
		}

		recipient, err := s.accounts.GetByEmailTx(ctx, q, email)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return domain.ErrRecipientNotFound
			}
			return err
		}

		// No precondition on the recipient balance; a miss here is a
		// storage anomaly, not a business outcome.
		recipientAfter, err := s.accounts.AdjustBalanceTx(ctx, q, recipient.ID, amount, accounts_repo.GuardAlways, now)
		if err != nil {
			if errors.Is(err, accounts_repo.ErrNoMatch) {
				s.logger.Error("credit failed after successful debit",
					zap.String("sender_id", senderID),
					zap.String("recipient_id", recipient.ID),
				)
				return domain.ErrCreditFailed
			}
			return err
		}

		// Both entries carry the balances captured from the mutations above,
		// not balances re-read later, and share one timestamp.
		entries := []*domain.Transaction{
			{
				AccountID:         senderAfter.ID,
				CounterpartyEmail: recipient.Email,
				Type:              domain.TransactionTypeTransfer,
				Direction:         domain.DirectionOut,
				Amount:            amount,
				Description:       description,
				Timestamp:         now,
				BalanceAfter:      senderAfter.Balance,
				Status:            domain.TransactionStatusCompleted,
			},
			{
				AccountID:         recipient.ID,
				CounterpartyEmail: senderAfter.Email,
				Type:              domain.TransactionTypeTransfer,
				Direction:         domain.DirectionIn,
				Amount:            amount,
				Description:       description,
				Timestamp:         now,
				BalanceAfter:      recipientAfter.Balance,
				Status:            domain.TransactionStatusCompleted,
			},
		}
		ids, err := s.transactions.AppendBatchTx(ctx, q, entries)
		if err != nil {
			return err
		}

		event := domain.TransferCompletedEvent{
			SenderTransactionID:    ids[0],
			RecipientTransactionID: ids[1],
			SenderAccountID:        senderAfter.ID,
			RecipientAccountID:     recipient.ID,
			RecipientEmail:         recipient.Email,
			Amount:                 amount,
			Currency:               senderAfter.Currency,
			Timestamp:              now,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal transfer event: %w", err)
		}
		msg := &domain.OutboxMessage{
			ID:        util.NewID(),
			Topic:     s.topic,
			Key:       senderAfter.ID,
			Payload:   payload,
			Status:    domain.OutboxStatusPending,
			CreatedAt: now,
		}
		if err := s.outbox.CreateMessageTx(ctx, q, msg); err != nil {
			return err
		}

		result = &TransferResult{
			Status:                 domain.TransactionStatusCompleted,
			SenderTransactionID:    ids[0],
			RecipientTransactionID: ids[1],
			RecipientEmail:         recipient.Email,
			Amount:                 amount,
			Timestamp:              now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer completed",
		zap.String("sender_id", senderID),
		zap.String("sender_transaction_id", result.SenderTransactionID),
		zap.String("recipient_transaction_id", result.RecipientTransactionID),
		zap.String("amount", result.Amount.String()),
	)
	return result, nil
}

func (s *transferService) ListTransactions(ctx context.Context, accountID string, offset, limit int) ([]domain.Transaction, int64, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, 0, domain.ValidationError("account id is required")
	}
	if offset < 0 || limit < 1 {
		return nil, 0, domain.ValidationError("offset must be >= 0 and limit >= 1")
	}
	return s.transactions.ListByAccountTx(ctx, s.db, accountID, offset, limit)
}

func (s *transferService) GetTransaction(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error) {
	accountID = strings.TrimSpace(accountID)
	transactionID = strings.TrimSpace(transactionID)
	if accountID == "" || transactionID == "" {
		return nil, domain.ValidationError("account id and transaction id are required")
	}
	return s.transactions.GetByIDForAccountTx(ctx, s.db, transactionID, accountID)
}
