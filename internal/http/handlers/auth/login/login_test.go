package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/models"
	"github.com/kurumisoft/panel-agent/internal/session"
	"github.com/kurumisoft/panel-agent/internal/storage/filekv"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, req api.LoginRequest) (string, models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(1).(models.User)
	return args.String(0), user, args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newTestSession(t *testing.T) *session.Store {
	t.Helper()
	kv, err := filekv.New(t.TempDir(), "")
	require.NoError(t, err)
	return session.New(context.Background(), kv, newNoopLogger())
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockToken      string
		mockUser       models.User
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantError      string
		wantAuthed     bool
	}{
		{
			name:           "valid login",
			requestBody:    api.LoginRequest{Username: "alice", Password: "secret1"},
			mockToken:      "abc123",
			mockUser:       models.User{ID: "1", Username: "alice"},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantAuthed:     true,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			requestBody:    api.LoginRequest{Username: "alice"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field Password is a required field",
		},
		{
			name:           "bad credentials",
			requestBody:    api.LoginRequest{Username: "alice", Password: "wrong12"},
			mockErr:        &api.Error{Status: http.StatusUnauthorized, Message: "bad credentials"},
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantError:      "invalid credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientMock := new(ServiceMock)
			sess := newTestSession(t)
			handler := New(newNoopLogger(), clientMock, sess)

			if req, ok := tt.requestBody.(api.LoginRequest); ok && tt.wantStatusCode != http.StatusUnprocessableEntity {
				clientMock.On("Login", mock.Anything, req).
					Return(tt.mockToken, tt.mockUser, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}

			assert.Equal(t, tt.wantAuthed, sess.IsAuthenticated())
			if tt.wantAuthed {
				assert.Equal(t, "abc123", sess.Token())
				require.NotNil(t, sess.User())
				assert.Equal(t, "alice", sess.User().Username)

				data, ok := got["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "/servers", data["redirect"], "login navigates to the server list")
			}
		})
	}
}
