package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferCompletedEvent is the payload published for every committed
// transfer. Downstream consumers (notification senders, analytics) subscribe
// to it instead of this service calling them directly.
type TransferCompletedEvent struct {
	SenderTransactionID    string          `json:"sender_transaction_id"`
	RecipientTransactionID string          `json:"recipient_transaction_id"`
	SenderAccountID        string          `json:"sender_account_id"`
	RecipientAccountID     string          `json:"recipient_account_id"`
	RecipientEmail         string          `json:"recipient_email"`
	Amount                 decimal.Decimal `json:"amount"`
	Currency               string          `json:"currency"`
	Timestamp              time.Time       `json:"timestamp"`
}
