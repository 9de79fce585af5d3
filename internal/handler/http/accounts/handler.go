package accounts_http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bank/internal/app/accounts"
	"bank/internal/domain"
	"bank/internal/handler/http/api"
)

type AccountHandler struct {
	service accounts.AccountService
	logger  *zap.Logger
}

func NewAccountHandler(s accounts.AccountService, l *zap.Logger) *AccountHandler {
	return &AccountHandler{service: s, logger: l}
}

type OpenAccountRequest struct {
	Email     string `json:"email"`
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency"`
}

type AccountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

func (h *AccountHandler) OpenAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid open account request body", zap.Error(err))
		api.WriteErrorCode(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}

	account, err := h.service.Open(r.Context(), req.Email, req.OwnerName, req.Currency)
	if err != nil {
		h.logger.Warn("account open rejected", zap.String("code", domain.CodeOf(err)), zap.Error(err))
		api.WriteError(w, err)
		return
	}
	api.WriteData(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	account, err := h.service.Get(r.Context(), accountID)
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteData(w, http.StatusOK, toAccountResponse(account))
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Email:     account.Email,
		OwnerName: account.OwnerName,
		Currency:  account.Currency,
		Balance:   account.Balance.StringFixed(2),
		Status:    string(account.Status),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
	}
}
