package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	HTTPPort int

	DBConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	MigrationsPath string

	KafkaBrokerURL     string
	KafkaTransferTopic string

	OutboxPollInterval time.Duration
	OutboxPollTimeout  time.Duration
	OutboxBatchSize    int

	// TransferTimeout bounds one transfer unit of work; on expiry the
	// underlying transaction aborts and rolls back.
	TransferTimeout time.Duration
	// TransferRetries is how many times a transfer is re-run whole after a
	// transient store error.
	TransferRetries int
	TransferBackoff time.Duration

	OpeningBalance decimal.Decimal
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.HTTPPort = getEnvAsInt("BANK_HTTP_PORT", 8080)

	cfg.DBConfig.Host = getEnvOrDefault("BANK_DB_HOST", "localhost")
	cfg.DBConfig.Port = getEnvAsInt("BANK_DB_PORT", 5432)
	cfg.DBConfig.User = getEnvOrDefault("BANK_DB_USER", "bank")
	cfg.DBConfig.Password = getEnvOrDefault("BANK_DB_PASSWORD", "bank")
	cfg.DBConfig.Name = getEnvOrDefault("BANK_DB_NAME", "bank_db")
	cfg.DBConfig.SSLMode = getEnvOrDefault("BANK_DB_SSLMODE", "disable")

	cfg.MigrationsPath = getEnvOrDefault("BANK_MIGRATIONS_PATH", "file://migrations")

	cfg.KafkaBrokerURL = getEnvOrDefault("KAFKA_BROKER_URL", "localhost:9092")
	cfg.KafkaTransferTopic = getEnvOrDefault("KAFKA_TRANSFER_EVENTS_TOPIC", "transfer_events")

	cfg.OutboxPollInterval = getEnvAsDuration("OUTBOX_POLL_INTERVAL", 1*time.Second)
	cfg.OutboxPollTimeout = getEnvAsDuration("OUTBOX_POLL_TIMEOUT", 500*time.Millisecond)
	cfg.OutboxBatchSize = getEnvAsInt("OUTBOX_BATCH_SIZE", 10)

	cfg.TransferTimeout = getEnvAsDuration("TRANSFER_TIMEOUT", 5*time.Second)
	cfg.TransferRetries = getEnvAsInt("TRANSFER_RETRIES", 3)
	cfg.TransferBackoff = getEnvAsDuration("TRANSFER_RETRY_BACKOFF", 50*time.Millisecond)

	opening, err := decimal.NewFromString(getEnvOrDefault("OPENING_BALANCE", "800.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPENING_BALANCE: %w", err)
	}
	if opening.Sign() < 0 {
		return nil, fmt.Errorf("OPENING_BALANCE must not be negative")
	}
	cfg.OpeningBalance = opening

	return cfg, nil
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetDBMigrationConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBConfig.User, c.DBConfig.Password, c.DBConfig.Host, c.DBConfig.Port, c.DBConfig.Name, c.DBConfig.SSLMode)
}

func (c *Config) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokerURL, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnvOrDefault(key, strconv.Itoa(defaultValue))
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnvOrDefault(key, defaultValue.String())
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
