// Package panelagent собирает агент панели: локальное хранилище состояния,
// сторы сессии и настроек, клиент удалённого API и маршруты локальной
// поверхности.
package panelagent

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kurumisoft/panel-agent/internal/account"
	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/guard"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/account/confirm"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/account/password"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/account/profile"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/auth/login"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/auth/logout"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/auth/register"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/billing/balance"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/billing/history"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/prefs/read"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/prefs/update"
	serverscreate "github.com/kurumisoft/panel-agent/internal/http/handlers/servers/create"
	serverslist "github.com/kurumisoft/panel-agent/internal/http/handlers/servers/list"
	serversread "github.com/kurumisoft/panel-agent/internal/http/handlers/servers/read"
	"github.com/kurumisoft/panel-agent/internal/http/handlers/sessioninfo"
	"github.com/kurumisoft/panel-agent/internal/session"
	"github.com/kurumisoft/panel-agent/internal/settings"
	"github.com/kurumisoft/panel-agent/internal/theme"
)

// RegisterRoutes регистрирует все маршруты локальной поверхности.
func RegisterRoutes(r chi.Router, logger *slog.Logger, client *api.Client,
	sess *session.Store, prefs *settings.Store, resolved *theme.Resolved,
	flow *account.Flow) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки: состояние сессии и настройки доступны
		// и до входа, тема с языком применяются на экране логина.
		r.Get("/session", sessioninfo.New(logger, sess).ServeHTTP)
		r.Get("/settings", read.New(prefs, resolved).ServeHTTP)
		r.Put("/settings", update.New(logger, prefs).ServeHTTP)

		// Группа для неаутентифицированных
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireGuest(sess, logger))
			r.Post("/auth/login", login.New(logger, client, sess).ServeHTTP)
			r.Post("/auth/register", register.New(logger, client, sess).ServeHTTP)
		})

		// Группа с проверкой сессии
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuth(sess, logger))
			r.Delete("/auth/logout", logout.New(logger, client, sess).ServeHTTP)

			accountHandler := confirm.New(logger, flow)
			r.Post("/account/profile", profile.New(logger, flow).ServeHTTP)
			r.Post("/account/password", password.New(logger, flow).ServeHTTP)
			r.Post("/account/confirm", accountHandler.Confirm)
			r.Delete("/account/confirm", accountHandler.Cancel)
			r.Get("/account/state", accountHandler.State)

			r.Get("/servers", serverslist.New(logger, client).ServeHTTP)
			r.Get("/servers/{id}", serversread.New(logger, client).ServeHTTP)
			r.Post("/servers", serverscreate.New(logger, client).ServeHTTP)

			r.Get("/billing/balance", balance.New(logger, client).ServeHTTP)
			r.Get("/billing/history", history.New(logger, client).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}
