// Package create реализует заказ нового сервера.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
)

// Service описывает операцию заказа сервера.
type Service interface {
	CreateServer(ctx context.Context, req models.CreateServerRequest) (*models.Server, error)
}

// Handler обрабатывает HTTP-запросы заказа сервера.
type Handler struct {
	log      *slog.Logger
	client   Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service) *Handler {
	return &Handler{
		log:      log,
		client:   client,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.CreateServerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	server, err := h.client.CreateServer(r.Context(), req)
	if err != nil {
		log.Error("failed to create server", sl.Err(err))
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

	log.Info("server ordered", slog.String("name", req.Name))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.OKWithData(server))
}
