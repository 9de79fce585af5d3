package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"bank/internal/domain"
	"bank/internal/util"
)

type OutboxRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo *OutboxRepository
}

func TestOutboxRepositorySuite(t *testing.T) {
	suite.Run(t, new(OutboxRepositorySuite))
}

func (s *OutboxRepositorySuite) SetupSuite() {
	_ = godotenv.Load()
	dsn := os.Getenv("BANK_TEST_DB_DSN")
	if dsn == "" {
		s.T().Skip("BANK_TEST_DB_DSN is not set")
	}

	db, err := sql.Open("postgres", dsn)
	s.Require().NoError(err)
	s.Require().NoError(db.Ping())
	s.db = db

	m, err := migrate.New("file://../../../../migrations", dsn)
	s.Require().NoError(err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.Require().NoError(err)
	}

	s.repo = NewOutboxRepository()
}

func (s *OutboxRepositorySuite) TearDownSuite() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *OutboxRepositorySuite) SetupTest() {
	_, err := s.db.Exec("TRUNCATE outbox_messages")
	s.Require().NoError(err)
}

func (s *OutboxRepositorySuite) createPending(createdAt time.Time) *domain.OutboxMessage {
	msg := &domain.OutboxMessage{
		ID:        util.NewID(),
		Topic:     "transfer_events",
		Key:       util.NewID(),
		Payload:   []byte(`{"event":"transfer.completed"}`),
		Status:    domain.OutboxStatusPending,
		CreatedAt: createdAt,
	}
	s.Require().NoError(s.repo.CreateMessageTx(context.Background(), s.db, msg))
	return msg
}

func (s *OutboxRepositorySuite) TestGetPendingMessagesOldestFirst() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	newer := s.createPending(base.Add(time.Second))
	older := s.createPending(base)

	messages, err := s.repo.GetPendingMessages(ctx, s.db, 10)
	s.Require().NoError(err)
	s.Require().Len(messages, 2)
	s.Equal(older.ID, messages[0].ID)
	s.Equal(newer.ID, messages[1].ID)
	s.Nil(messages[0].SentAt)
}

func (s *OutboxRepositorySuite) TestGetPendingMessagesRespectsLimit() {
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		s.createPending(base.Add(time.Duration(i) * time.Millisecond))
	}

	messages, err := s.repo.GetPendingMessages(context.Background(), s.db, 3)
	s.Require().NoError(err)
	s.Len(messages, 3)
}

func (s *OutboxRepositorySuite) TestMarkMessagesAsSent() {
	ctx := context.Background()
	msg := s.createPending(time.Now().UTC())
	other := s.createPending(time.Now().UTC())

	s.Require().NoError(s.repo.MarkMessagesAsSent(ctx, s.db, []string{msg.ID}))

	messages, err := s.repo.GetPendingMessages(ctx, s.db, 10)
	s.Require().NoError(err)
	s.Require().Len(messages, 1)
	s.Equal(other.ID, messages[0].ID)

	var status string
	var sentAt sql.NullTime
	err = s.db.QueryRow("SELECT status, sent_at FROM outbox_messages WHERE id = $1", msg.ID).Scan(&status, &sentAt)
	s.Require().NoError(err)
	s.Equal(string(domain.OutboxStatusSent), status)
	s.True(sentAt.Valid)
}

func (s *OutboxRepositorySuite) TestMarkMessagesAsFailed() {
	ctx := context.Background()
	msg := s.createPending(time.Now().UTC())

	s.Require().NoError(s.repo.MarkMessagesAsFailed(ctx, s.db, []string{msg.ID}))

	messages, err := s.repo.GetPendingMessages(ctx, s.db, 10)
	s.Require().NoError(err)
	s.Empty(messages)

	var status string
	err = s.db.QueryRow("SELECT status FROM outbox_messages WHERE id = $1", msg.ID).Scan(&status)
	s.Require().NoError(err)
	s.Equal(string(domain.OutboxStatusFailed), status)
}

func (s *OutboxRepositorySuite) TestMarkMessagesUnknownID() {
	err := s.repo.MarkMessagesAsSent(context.Background(), s.db, []string{util.NewID()})
	s.Require().Error(err)
}

func (s *OutboxRepositorySuite) TestMarkMessagesEmptyIsNoOp() {
	s.Require().NoError(s.repo.MarkMessagesAsSent(context.Background(), s.db, nil))
	s.Require().NoError(s.repo.MarkMessagesAsFailed(context.Background(), s.db, nil))
}
