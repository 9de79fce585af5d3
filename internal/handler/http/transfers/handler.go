package transfers_http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"bank/internal/app/transfers"
	"bank/internal/domain"
	"bank/internal/handler/http/api"
)

// AccountIDHeader carries the authenticated caller's account id, injected by
// the identity layer upstream. Handlers trust it without re-authenticating.
const AccountIDHeader = "X-Account-ID"

const defaultListLimit = 100

type TransferHandler struct {
	service transfers.TransferService
	logger  *zap.Logger
}

func NewTransferHandler(s transfers.TransferService, l *zap.Logger) *TransferHandler {
	return &TransferHandler{service: s, logger: l}
}

type TransferRequest struct {
	RecipientEmail string          `json:"recipient_email"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description"`
}

type TransferResponse struct {
	Status                 string `json:"status"`
	SenderTransactionID    string `json:"sender_transaction_id"`
	RecipientTransactionID string `json:"recipient_transaction_id"`
	RecipientEmail         string `json:"recipient_email"`
	Amount                 string `json:"amount"`
	Timestamp              string `json:"timestamp"`
}

type TransactionResponse struct {
	ID                string  `json:"id"`
	Direction         string  `json:"direction"`
	Type              string  `json:"type"`
	Amount            string  `json:"amount"`
	CounterpartyEmail string  `json:"counterparty_email,omitempty"`
	Description       string  `json:"description,omitempty"`
	Timestamp         string  `json:"timestamp"`
	BalanceAfter      string  `json:"balance_after"`
	Status            string  `json:"status"`
	Fee               *string `json:"fee,omitempty"`
	Reference         string  `json:"reference,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Offset       int                   `json:"offset"`
	Limit        int                   `json:"limit"`
}

func (h *TransferHandler) TransferHandler(w http.ResponseWriter, r *http.Request) {
	senderID := r.Header.Get(AccountIDHeader)
	if senderID == "" {
		api.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing account identity")
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid transfer request body", zap.Error(err))
		api.WriteErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	result, err := h.service.Transfer(r.Context(), senderID, req.RecipientEmail, req.Amount, req.Description)
	if err != nil {
		h.logger.Warn("transfer rejected",
			zap.String("sender_id", senderID),
			zap.String("code", domain.CodeOf(err)),
			zap.Error(err),
		)
		api.WriteError(w, err)
		return
	}

	api.WriteData(w, http.StatusCreated, TransferResponse{
		Status:                 string(result.Status),
		SenderTransactionID:    result.SenderTransactionID,
		RecipientTransactionID: result.RecipientTransactionID,
		RecipientEmail:         result.RecipientEmail,
		Amount:                 result.Amount.StringFixed(2),
		Timestamp:              result.Timestamp.Format(time.RFC3339),
	})
}

func (h *TransferHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get(AccountIDHeader)
	if accountID == "" {
		api.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing account identity")
		return
	}

	offset, ok := queryInt(r, "offset", 0)
	if !ok || offset < 0 {
		api.WriteErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "invalid offset/limit")
		return
	}
	limit, ok := queryInt(r, "limit", defaultListLimit)
	if !ok || limit < 1 {
		api.WriteErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "invalid offset/limit")
		return
	}

	entries, total, err := h.service.ListTransactions(r.Context(), accountID, offset, limit)
	if err != nil {
		h.logger.Error("failed to list transactions", zap.String("account_id", accountID), zap.Error(err))
		api.WriteError(w, err)
		return
	}

	resp := ListTransactionsResponse{
		Transactions: make([]TransactionResponse, 0, len(entries)),
		Total:        total,
		Offset:       offset,
		Limit:        limit,
	}
	for _, entry := range entries {
		resp.Transactions = append(resp.Transactions, toTransactionResponse(entry))
	}
	api.WriteData(w, http.StatusOK, resp)
}

func (h *TransferHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	accountID := r.Header.Get(AccountIDHeader)
	if accountID == "" {
		api.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing account identity")
		return
	}
	transactionID := chi.URLParam(r, "transactionId")

	entry, err := h.service.GetTransaction(r.Context(), accountID, transactionID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, toTransactionResponse(*entry))
}

func toTransactionResponse(entry domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:                entry.ID,
		Direction:         string(entry.Direction),
		Type:              string(entry.Type),
		Amount:            entry.Amount.StringFixed(2),
		CounterpartyEmail: entry.CounterpartyEmail,
		Description:       entry.Description,
		Timestamp:         entry.Timestamp.Format(time.RFC3339),
		BalanceAfter:      entry.BalanceAfter.StringFixed(2),
		Status:            string(entry.Status),
		Reference:         entry.Reference,
	}
	if entry.Fee != nil {
		fee := entry.Fee.StringFixed(2)
		resp.Fee = &fee
	}
	return resp
}

func queryInt(r *http.Request, key string, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
