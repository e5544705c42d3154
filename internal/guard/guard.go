// Package guard содержит middleware-предикаты маршрутов локальной поверхности.
//
// Оба предиката смотрят только на производный признак аутентификации стора
// сессии и перепроверяют его на каждом запросе. Редирект идёт со статусом
// 303 See Other: страница за защитой не успевает отрендериться и не попадает
// в историю навигации.
package guard

import (
	"log/slog"
	"net/http"
)

// Точки входа, между которыми переключают предикаты.
const (
	LoginPath   = "/login"
	DefaultPath = "/servers"
)

// SessionFlag — производный признак аутентификации стора сессии.
type SessionFlag interface {
	IsAuthenticated() bool
}

// RequireAuth пропускает только аутентифицированные запросы,
// остальные уводит на экран входа.
func RequireAuth(sess SessionFlag, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sess.IsAuthenticated() {
				log.Debug("unauthenticated request, redirecting to login",
					slog.String("path", r.URL.Path))
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireGuest пропускает только анонимные запросы (вход, регистрация),
// аутентифицированные уводит на список серверов.
func RequireGuest(sess SessionFlag, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess.IsAuthenticated() {
				log.Debug("authenticated request to a guest page, redirecting",
					slog.String("path", r.URL.Path))
				http.Redirect(w, r, DefaultPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
