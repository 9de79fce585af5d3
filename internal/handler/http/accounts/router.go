package accounts_http

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"bank/internal/app/accounts"
)

func RegisterRoutes(r chi.Router, s accounts.AccountService, l *zap.Logger) {
	handler := NewAccountHandler(s, l.With(zap.String("component", "AccountHTTPHandler")))

	r.Route("/accounts", func(r chi.Router) {
		r.Post("/", handler.OpenAccountHandler)
		r.Get("/{id}", handler.GetAccountHandler)
	})
}
