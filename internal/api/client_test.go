package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurumisoft/panel-agent/internal/config"
	"github.com/kurumisoft/panel-agent/internal/metrics"
	"github.com/kurumisoft/panel-agent/internal/models"
	"github.com/kurumisoft/panel-agent/internal/session"
	"github.com/kurumisoft/panel-agent/internal/storage/filekv"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestSession(t *testing.T) *session.Store {
	t.Helper()
	kv, err := filekv.New(t.TempDir(), "")
	require.NoError(t, err)
	return session.New(context.Background(), kv, newNoopLogger())
}

func newTestClient(t *testing.T, baseURL string, sess *session.Store, onExpired func()) *Client {
	t.Helper()
	cfg := config.RemoteAPI{
		BaseURL:        baseURL,
		RequestTimeout: 5 * time.Second,
		RateLimit:      1000,
		RateBurst:      1000,
	}
	m := metrics.NewPipeline(prometheus.NewRegistry())
	return New(cfg, sess, m, newNoopLogger(), onExpired)
}

func TestLogin_TokenInHeaderUserInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)
		assert.Equal(t, "secret", req.Password)

		w.Header().Set("access_token", "abc123")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"username":"alice"}`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	client := newTestClient(t, srv.URL, sess, nil)

	token, user, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "1", user.ID)
}

func TestLogin_NoTokenInResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"username":"alice"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, newTestSession(t), nil)

	_, _, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "secret"})
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestExpiredTokenRecovery(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("access_token", "xyz789")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xyz789" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"username":"alice","email":"a@example.com"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t)
	require.NoError(t, sess.Login(context.Background(), "stale", models.User{Username: "alice"}))

	client := newTestClient(t, srv.URL, sess, nil)

	// Вызывающий получает профиль и не знает, что случился refresh.
	user, err := client.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "a@example.com", user.Email)

	assert.Equal(t, int64(1), refreshCalls.Load())
	assert.Equal(t, "xyz789", sess.Token(), "store token reflects the refreshed value")
	require.NotNil(t, sess.User())
	assert.Equal(t, "alice", sess.User().Username, "user record untouched by refresh")
}

func TestRetryMarker_SingleRefreshPerRequest(t *testing.T) {
	var refreshCalls, serverCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		w.Header().Set("access_token", "fresh")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/servers", func(w http.ResponseWriter, _ *http.Request) {
		serverCalls.Add(1)
		// Сервер упорно отвергает и обновлённый токен.
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"still no"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t)
	require.NoError(t, sess.Login(context.Background(), "stale", models.User{Username: "alice"}))

	client := newTestClient(t, srv.URL, sess, nil)

	_, err := client.ListServers(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	assert.Equal(t, int64(1), refreshCalls.Load(), "retry marker prevents a second refresh")
	assert.Equal(t, int64(2), serverCalls.Load(), "original call plus exactly one retry")
}

func TestRefreshFailure_ClearsSessionAndRedirectsOnce(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"refresh token expired"}`))
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	sess := newTestSession(t)
	require.NoError(t, sess.Login(context.Background(), "stale", models.User{Username: "alice"}))

	redirects := 0
	client := newTestClient(t, srv.URL, sess, func() { redirects++ })

	_, err := client.GetProfile(context.Background())
	require.Error(t, err, "refresh failure propagates to the original caller")

	assert.False(t, sess.IsAuthenticated())
	assert.Nil(t, sess.User())
	assert.Equal(t, 1, redirects, "redirect triggered exactly once")
}

func TestLoginEndpoint_NeverTriggersRefresh(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, _ *http.Request) {
		refreshCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"bad credentials"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL, newTestSession(t), nil)

	_, _, err := client.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong1"})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, int64(0), refreshCalls.Load())
}

func TestNetworkFailure_NotRetried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // сервер уже недоступен

	sess := newTestSession(t)
	require.NoError(t, sess.Login(context.Background(), "tok", models.User{Username: "alice"}))

	redirects := 0
	client := newTestClient(t, srv.URL, sess, func() { redirects++ })

	_, err := client.ListServers(context.Background())
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.True(t, sess.IsAuthenticated(), "network failures never terminate the session")
	assert.Zero(t, redirects)
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	sess := newTestSession(t)
	require.NoError(t, sess.Login(context.Background(), "tok123", models.User{Username: "alice"}))

	client := newTestClient(t, srv.URL, sess, nil)
	_, err := client.ListServers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}
