// Package confirm управляет ожидающей мутацией аккаунта: подтверждение
// текущим паролем, отмена и чтение среза состояния.
package confirm

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/account"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
)

// Request — текущий пароль, подтверждающий мутацию.
type Request struct {
	CurrentPassword string `json:"currentPassword"`
}

// Handler обрабатывает подтверждение, отмену и чтение состояния потока.
type Handler struct {
	log  *slog.Logger
	flow *account.Flow
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, flow *account.Flow) *Handler {
	return &Handler{log: log, flow: flow}
}

// Confirm подтверждает ожидающую мутацию текущим паролем.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.confirm"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.flow.Confirm(r.Context(), req.CurrentPassword); err != nil {
		log.Error("confirmation failed", sl.Err(err))
		switch {
		case errors.Is(err, account.ErrNotAwaiting):
			w.WriteHeader(http.StatusConflict)
		case errors.Is(err, account.ErrSubmitting):
			w.WriteHeader(http.StatusConflict)
		case errors.Is(err, account.ErrEmptyPassword):
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
		// Текст для пользователя уже переведён и лежит в срезе состояния.
		render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
		return
	}

	log.Info("mutation confirmed")
	render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
}

// Cancel закрывает ожидающее подтверждение.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.cancel"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.flow.Cancel(); err != nil {
		log.Error("cancel rejected", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error("mutation is being submitted"))
		return
	}
	render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
}

// State отдаёт текущий срез состояния потока.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
}
