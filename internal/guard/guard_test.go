package guard

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sessionFlagStub struct{ authed bool }

func (s *sessionFlagStub) IsAuthenticated() bool { return s.authed }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("content"))
	})
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name         string
		authed       bool
		wantStatus   int
		wantLocation string
	}{
		{"authenticated passes", true, http.StatusOK, ""},
		{"anonymous redirected to login", false, http.StatusSeeOther, LoginPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &sessionFlagStub{authed: tt.authed}
			handler := RequireAuth(flag, newNoopLogger())(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servers", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestRequireGuest(t *testing.T) {
	tests := []struct {
		name         string
		authed       bool
		wantStatus   int
		wantLocation string
	}{
		{"anonymous passes", false, http.StatusOK, ""},
		{"authenticated redirected to servers", true, http.StatusSeeOther, DefaultPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &sessionFlagStub{authed: tt.authed}
			handler := RequireGuest(flag, newNoopLogger())(okHandler())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
		})
	}
}

func TestGuards_ReevaluatePerRequest(t *testing.T) {
	flag := &sessionFlagStub{authed: false}
	handler := RequireAuth(flag, newNoopLogger())(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servers", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	flag.authed = true
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/servers", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
