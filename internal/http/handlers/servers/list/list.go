// Package list отдаёт инвентарь серверов аккаунта с удалённого API.
package list

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

// Service описывает операцию чтения списка серверов.
type Service interface {
	ListServers(ctx context.Context) ([]models.Server, error)
}

// Handler обрабатывает HTTP-запросы списка серверов.
type Handler struct {
	log    *slog.Logger
	client Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	servers, err := h.client.ListServers(r.Context())
	if err != nil {
		log.Error("failed to list servers", sl.Err(err))
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

	log.Info("servers listed", slog.Int("count", len(servers)))
	render.JSON(w, r, response.OKWithData(servers))
}
