// Package register реализует обработчик регистрации аккаунта.
// Форма ответа удалённого API совпадает с login, поэтому успешная
// регистрация сразу открывает сессию.
package register

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

// Service описывает операцию регистрации на удалённом API.
type Service interface {
	Register(ctx context.Context, req api.RegisterRequest) (string, models.User, error)
}

// Handler обрабатывает HTTP-запросы регистрации.
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
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req api.RegisterRequest
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

	token, user, err := h.client.Register(r.Context(), req)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		var apiErr *api.Error
		msg := "registration failed"
		status := http.StatusBadGateway
		if errors.As(err, &apiErr) {
			status = apiErr.Status
			msg = apiErr.Message
		}
		w.WriteHeader(status)
		render.JSON(w, r, response.Error(msg))
		return
	}

	if err := h.sess.Login(r.Context(), token, user); err != nil {
		log.Error("failed to persist session", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to persist session"))
		return
	}

	log.Info("registration success", slog.String("username", user.Username))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"user":     user,
		"redirect": guard.DefaultPath,
	}))
}
