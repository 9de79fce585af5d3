package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"bank/internal/domain"
)

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func NewPostgresDB(cfg DBConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// SQLTxRunner runs units of work as database transactions. Concurrency safety
// is delegated entirely to the database: the runner holds no in-process lock
// across the transaction's I/O.
type SQLTxRunner struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSQLTxRunner(db *sql.DB, logger *zap.Logger) *SQLTxRunner {
	return &SQLTxRunner{db: db, logger: logger}
}

var _ domain.TxRunner = (*SQLTxRunner)(nil)

func (r *SQLTxRunner) WithinTx(ctx context.Context, fn func(q domain.Querier) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic inside unit of work, rolling back", zap.Any("panic", p))
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.logger.Error("failed to roll back transaction", zap.Error(rbErr))
		}
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return classify(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

// classify maps retryable storage failures onto ErrStoreUnavailable so
// callers can retry the whole unit of work. Domain errors pass through.
func classify(err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}

func isTransient(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Code.Class() {
		// connection exceptions, transaction rollbacks (serialization,
		// deadlock), insufficient resources, operator intervention
		case "08", "40", "53", "57":
			return true
		}
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	// Context expiry aborts the unit of work; retrying on a dead context
	// cannot succeed, so it is not transient.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
