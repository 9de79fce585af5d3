package outbox_repo

import (
	"context"

	"bank/internal/domain"
)

type OutboxRepository interface {
	CreateMessageTx(ctx context.Context, q domain.Querier, msg *domain.OutboxMessage) error
	GetPendingMessages(ctx context.Context, q domain.Querier, limit int) ([]domain.OutboxMessage, error)
	MarkMessagesAsSent(ctx context.Context, q domain.Querier, ids []string) error
	MarkMessagesAsFailed(ctx context.Context, q domain.Querier, ids []string) error
}
