// Package sessioninfo отдаёт текущее состояние сессии локальной поверхности:
// профиль пользователя и, если токен оказался JWT, срок его действия.
package sessioninfo

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/tokeninfo"
	"github.com/kurumisoft/panel-agent/internal/session"
)

// Handler обрабатывает запрос состояния сессии.
type Handler struct {
	log  *slog.Logger
	sess *session.Store
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, sess *session.Store) *Handler {
	return &Handler{log: log, sess: sess}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"authenticated": h.sess.IsAuthenticated(),
	}
	if user := h.sess.User(); user != nil {
		data["user"] = user
	}
	// Для непрозрачных (не-JWT) токенов информации о сроке нет, это не ошибка.
	if token := h.sess.Token(); token != "" {
		if info, err := tokeninfo.Peek(token); err == nil {
			data["token"] = info
		}
	}
	render.JSON(w, r, response.OKWithData(data))
}
