// Package read отдаёт один сервер по идентификатору из пути запроса.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
)

// Service описывает операцию чтения сервера.
type Service interface {
	GetServer(ctx context.Context, id string) (*models.Server, error)
}

// Handler обрабатывает HTTP-запросы чтения сервера.
type Handler struct {
	log    *slog.Logger
	client Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{log: log, client: client}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("server id is required"))
		return
	}

	server, err := h.client.GetServer(r.Context(), id)
	if err != nil {
		log.Error("failed to get server", sl.Err(err), slog.String("server_id", id))
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

	render.JSON(w, r, response.OKWithData(server))
}
