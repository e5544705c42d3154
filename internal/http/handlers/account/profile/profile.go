// Package profile открывает подтверждение изменения профиля:
// валидная форма переводит поток аккаунта в awaiting-confirmation.
package profile

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kurumisoft/panel-agent/internal/account"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы начала изменения профиля.
type Handler struct {
	log  *slog.Logger
	flow *account.Flow
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, flow *account.Flow) *Handler {
	return &Handler{log: log, flow: flow}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.profile"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var form account.ProfileForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.flow.BeginProfileUpdate(form); err != nil {
		log.Error("profile form rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error(err.Error()))
		return
	}

	render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
}
