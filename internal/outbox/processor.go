package outbox

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bank/internal/domain"
	kafka_infra "bank/internal/infrastructure/kafka"
	"bank/internal/metrics"
	"bank/internal/repository/outbox_repo"
)

// Processor polls the outbox table and publishes pending transfer events to
// Kafka. Events are staged inside the transfer's own unit of work, so a
// message exists if and only if its transfer committed.
type Processor struct {
	db           domain.Querier
	runner       domain.TxRunner
	outboxRepo   outbox_repo.OutboxRepository
	producer     kafka_infra.Producer
	pollInterval time.Duration
	pollTimeout  time.Duration
	batchSize    int
	metrics      *metrics.Collector
	logger       *zap.Logger
}

func NewProcessor(
	db domain.Querier,
	runner domain.TxRunner,
	outboxRepo outbox_repo.OutboxRepository,
	producer kafka_infra.Producer,
	pollInterval time.Duration,
	pollTimeout time.Duration,
	batchSize int,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		db:           db,
		runner:       runner,
		outboxRepo:   outboxRepo,
		producer:     producer,
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		batchSize:    batchSize,
		metrics:      collector,
		logger:       logger,
	}
}

// Start polls until ctx is canceled.
func (p *Processor) Start(ctx context.Context) {
	p.logger.Info("starting outbox processor", zap.Duration("poll_interval", p.pollInterval))
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox processor stopping")
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publishes one batch of pending messages. Messages the broker
// rejects are marked FAILED so a poison message cannot block the queue; a
// broker that is down leaves the whole batch pending for the next tick.
func (p *Processor) ProcessBatch(ctx context.Context) {
	queryCtx, cancel := context.WithTimeout(ctx, p.pollTimeout)
	messages, err := p.outboxRepo.GetPendingMessages(queryCtx, p.db, p.batchSize)
	cancel()
	if err != nil {
		p.logger.Error("failed to get pending outbox messages", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}

	var sent, failed []string
	for _, msg := range messages {
		if err := p.producer.Produce(ctx, msg.Key, msg.Payload); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.metrics.RecordOutboxFailure()
			p.logger.Error("failed to publish outbox message",
				zap.String("message_id", msg.ID),
				zap.String("topic", msg.Topic),
				zap.Error(err),
			)
			failed = append(failed, msg.ID)
			continue
		}
		sent = append(sent, msg.ID)
	}

	err = p.runner.WithinTx(ctx, func(q domain.Querier) error {
		if err := p.outboxRepo.MarkMessagesAsSent(ctx, q, sent); err != nil {
			return err
		}
		return p.outboxRepo.MarkMessagesAsFailed(ctx, q, failed)
	})
	if err != nil {
		p.logger.Error("failed to update outbox message statuses", zap.Error(err))
		return
	}

	if len(sent) > 0 {
		p.metrics.RecordOutboxPublished(len(sent))
		p.logger.Info("outbox messages published", zap.Int("count", len(sent)))
	}
}
