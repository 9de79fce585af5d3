package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"bank/internal/domain"
)

type ResilientConfig struct {
	// MaxRetries is how many times a unit of work is re-run whole after a
	// transient failure. Partial retries of individual steps never happen:
	// the unit of work is only committed at the end, so re-running from the
	// first step is safe.
	MaxRetries int
	Backoff    time.Duration
}

// ResilientTxRunner wraps a TxRunner with whole-unit-of-work retries and a
// circuit breaker. Only transient storage failures count against the breaker
// and trigger retries; domain outcomes such as insufficient funds pass
// through untouched.
type ResilientTxRunner struct {
	inner  domain.TxRunner
	cb     *gobreaker.CircuitBreaker
	cfg    ResilientConfig
	logger *zap.Logger
}

func NewResilientTxRunner(inner domain.TxRunner, cfg ResilientConfig, logger *zap.Logger) *ResilientTxRunner {
	settings := gobreaker.Settings{
		Name: "bank-store",
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !domain.IsTransient(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("store circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &ResilientTxRunner{
		inner:  inner,
		cb:     gobreaker.NewCircuitBreaker(settings),
		cfg:    cfg,
		logger: logger,
	}
}

var _ domain.TxRunner = (*ResilientTxRunner)(nil)

func (r *ResilientTxRunner) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.cfg.Backoff << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			r.logger.Warn("retrying unit of work after transient store error",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}

		_, err := r.cb.Execute(func() (interface{}, error) {
			return nil, r.inner.WithinTx(ctx, fn)
		})
		if err == nil {
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: store circuit open", domain.ErrStoreUnavailable)
		}
		if !domain.IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
