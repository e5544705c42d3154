// Package password открывает подтверждение смены пароля. Совпадение и длина
// нового пароля проверяются до любого сетевого вызова.
package password

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/kurumisoft/panel-agent/internal/account"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы начала смены пароля.
type Handler struct {
	log  *slog.Logger
	flow *account.Flow
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, flow *account.Flow) *Handler {
	return &Handler{log: log, flow: flow}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.password"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var form account.PasswordForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.flow.BeginPasswordChange(form); err != nil {
		log.Error("password form rejected", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		switch {
		case errors.Is(err, account.ErrPasswordsDiffer):
			render.JSON(w, r, response.Error("passwords do not match"))
		default:
			if verrs, ok := err.(validator.ValidationErrors); ok {
				render.JSON(w, r, response.ValidationError(verrs))
				return
			}
			render.JSON(w, r, response.Error(err.Error()))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(h.flow.Snapshot()))
}
