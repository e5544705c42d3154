// Package balance отдаёт текущий баланс аккаунта с удалённого API.
package balance

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
)

// Service описывает операцию чтения баланса.
type Service interface {
	GetBalance(ctx context.Context) (*models.Balance, error)
}

// Handler обрабатывает HTTP-запросы баланса.
type Handler struct {
	log    *slog.Logger
	client Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.balance"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	balance, err := h.client.GetBalance(r.Context())
	if err != nil {
		log.Error("failed to get balance", sl.Err(err))
		var apiErr *api.Error
		if errors.As(err, &apiErr) {
			w.WriteHeader(apiErr.Status)
			render.JSON(w, r, response.Error(apiErr.Message))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		render.JSON(w, r, response.Error("hosting api unavailable"))
		return
	}

	render.JSON(w, r, response.OKWithData(balance))
}
