// Package login реализует обработчик входа в аккаунт.
//
// Декодирует учётные данные, валидирует их, выполняет вход через клиент
// удалённого API и атомарно заполняет стор сессии. В ответе — профиль и
// точка навигации после входа.
package login

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
	"github.com/kurumisoft/panel-agent/internal/guard"
	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
	"github.com/kurumisoft/panel-agent/internal/session"
)

// Service описывает операцию входа на удалённом API.
type Service interface {
	Login(ctx context.Context, req api.LoginRequest) (string, models.User, error)
}

// Handler обрабатывает HTTP-запросы входа.
type Handler struct {
	log      *slog.Logger
	client   Service
	sess     *session.Store
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, client Service, sess *session.Store) *Handler {
	return &Handler{
		log:      log,
		client:   client,
		sess:     sess,
		validate: validator.New(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req api.LoginRequest
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

	token, user, err := h.client.Login(r.Context(), req)
	if err != nil {
		log.Error("login failed", sl.Err(err))
		status := http.StatusBadGateway
		if api.IsUnauthorized(err) || errors.Is(err, api.ErrNoToken) {
			status = http.StatusUnauthorized
		}
		w.WriteHeader(status)
		render.JSON(w, r, response.Error("invalid credentials"))
		return
	}

	if err := h.sess.Login(r.Context(), token, user); err != nil {
		log.Error("failed to persist session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to persist session"))
		return
	}

	log.Info("login success", slog.String("username", user.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":     user,
		"redirect": guard.DefaultPath,
	}))
}
