// Package logout реализует обработчик выхода из аккаунта.
//
// Вызов удалённого API идёт по принципу best-effort: локальная сессия
// очищается независимо от его результата. Параметр ?all=true завершает
// все сессии аккаунта на сервере.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/guard"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/session"
)

// Service описывает операции завершения сессий на удалённом API.
type Service interface {
	Logout(ctx context.Context) error
	LogoutAll(ctx context.Context) error
}

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log    *slog.Logger
	client Service
	sess   *session.Store
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service, sess *session.Store) *Handler {
	return &Handler{log: log, client: client, sess: sess}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var err error
	if r.URL.Query().Get("all") == "true" {
		err = h.client.LogoutAll(r.Context())
	} else {
		err = h.client.Logout(r.Context())
	}
	if err != nil {
		// Сервер мог быть недоступен — локальный выход всё равно происходит.
		log.Warn("remote logout failed", sl.Err(err))
	}

	if err := h.sess.Logout(r.Context()); err != nil {
		log.Error("failed to clear session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to clear session"))
		return
	}

	log.Info("logged out")
	render.JSON(w, r, response.OKWithData(map[string]any{
		"redirect": guard.LoginPath,
	}))
}
