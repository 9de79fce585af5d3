package domain

import "errors"

// Error is a typed domain error carrying a stable machine-readable code.
// Clients branch on Code; Message is for humans only.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrSenderNotFound    = &Error{Code: "SENDER_NOT_FOUND", Message: "sender account not found"}
	ErrRecipientNotFound = &Error{Code: "RECIPIENT_NOT_FOUND", Message: "recipient account not found"}
	ErrInsufficientFunds = &Error{Code: "INSUFFICIENT_FUNDS", Message: "insufficient funds"}
	ErrCreditFailed      = &Error{Code: "CREDIT_FAILED", Message: "credit to recipient account failed"}
	ErrStoreUnavailable  = &Error{Code: "STORE_UNAVAILABLE", Message: "storage temporarily unavailable"}

	ErrAccountNotFound     = &Error{Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrAccountExists       = &Error{Code: "ACCOUNT_EXISTS", Message: "account already exists"}
	ErrTransactionNotFound = &Error{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found"}
)

// ValidationError builds a VALIDATION_ERROR with a specific message.
func ValidationError(msg string) *Error {
	return &Error{Code: "VALIDATION_ERROR", Message: msg}
}

// CodeOf extracts the stable code from an error chain, or INTERNAL
// when the error is not a domain error.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}

// IsTransient reports whether retrying the whole unit of work may succeed.
func IsTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
