package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusFrozen AccountStatus = "FROZEN"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account is the unit of atomic mutation. Its balance is only ever changed
// through the guarded conditional update in accounts_repo; any other
// read-modify-write of Balance is a concurrency bug.
type Account struct {
	ID        string
	Email     string
	OwnerName string
	Currency  string
	Balance   decimal.Decimal
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail canonicalizes a transfer address the way the store indexes it.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidAmount reports whether d is a positive amount with at most
// two decimal places of precision.
func ValidAmount(d decimal.Decimal) bool {
	return d.Sign() > 0 && d.Equal(d.Round(2))
}
