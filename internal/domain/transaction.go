package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusReversed  TransactionStatus = "REVERSED"
)

type TransactionDirection string

const (
	DirectionIn  TransactionDirection = "in"
	DirectionOut TransactionDirection = "out"
)

type TransactionType string

const (
	TransactionTypeTransfer TransactionType = "TRANSFER"
	TransactionTypeCredit   TransactionType = "CREDIT"
	TransactionTypeDebit    TransactionType = "DEBIT"
)

// Transaction is one side of a money movement. Rows are append-only: a
// committed entry is never updated; a reversal is a new compensating entry.
type Transaction struct {
	ID                string
	AccountID         string
	CounterpartyEmail string
	Type              TransactionType
	Direction         TransactionDirection
	Amount            decimal.Decimal
	Description       string
	Timestamp         time.Time
	BalanceAfter      decimal.Decimal
	Status            TransactionStatus
	Fee               *decimal.Decimal
	Reference         string
	Metadata          []byte
}

// MaxDescriptionLength bounds the free-form transfer description.
// Longer input is truncated, not rejected.
const MaxDescriptionLength = 200

// TruncateDescription caps a description at MaxDescriptionLength runes.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxDescriptionLength {
		return s
	}
	return string(runes[:MaxDescriptionLength])
}
