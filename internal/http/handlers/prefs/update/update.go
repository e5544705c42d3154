// Package update реализует обработчик изменения настроек интерфейса.
// Меняются только присланные поля; значения вне закрытых множеств отклоняются.
package update

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/settings"
)

// Request — изменяемые поля настроек, обе опциональны.
type Request struct {
	Language *settings.Language `json:"language,omitempty"`
	Theme    *settings.Theme    `json:"theme,omitempty"`
}

// Handler обрабатывает HTTP-запросы изменения настроек.
type Handler struct {
	log   *slog.Logger
	store *settings.Store
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, store *settings.Store) *Handler {
	return &Handler{log: log, store: store}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.prefs.update"

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

	if req.Language != nil {
		if err := h.store.SetLanguage(r.Context(), *req.Language); err != nil {
			h.reject(w, r, log, err)
			return
		}
	}
	if req.Theme != nil {
		if err := h.store.SetTheme(r.Context(), *req.Theme); err != nil {
			h.reject(w, r, log, err)
			return
		}
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"language": h.store.Language(),
		"theme":    h.store.Theme(),
	}))
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	log.Error("failed to update settings", sl.Err(err))
	if errors.Is(err, settings.ErrUnknownValue) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("unknown settings value"))
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	render.JSON(w, r, response.Error("failed to persist settings"))
}
