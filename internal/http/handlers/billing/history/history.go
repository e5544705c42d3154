// Package history отдаёт историю платежей аккаунта с удалённого API.
package history

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

// Service описывает операцию чтения истории платежей.
type Service interface {
	GetBillingHistory(ctx context.Context) ([]models.PaymentRecord, error)
}

// Handler обрабатывает HTTP-запросы истории платежей.
type Handler struct {
	log    *slog.Logger
	client Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.history"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	history, err := h.client.GetBillingHistory(r.Context())
	if err != nil {
		log.Error("failed to get billing history", sl.Err(err))
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

	render.JSON(w, r, response.OKWithData(history))
}
