package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/kurumisoft/panel-agent/internal/config"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/metrics"
	"github.com/kurumisoft/panel-agent/internal/session"
)

// Client клиент удалённого API. Все исходящие запросы агента идут через него:
// только клиент знает о жизненном цикле токена.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sess       *session.Store
	limiter    *rate.Limiter
	metrics    *metrics.Pipeline
	log        *slog.Logger

	// onSessionExpired вызывается ровно один раз на каждый фатальный отказ
	// refresh — приложение переводит клиента на экран входа.
	onSessionExpired func()
}

// New создаёт клиент удалённого API.
func New(cfg config.RemoteAPI, sess *session.Store, m *metrics.Pipeline, log *slog.Logger, onSessionExpired func()) *Client {
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:       &http.Client{Timeout: cfg.RequestTimeout},
		sess:             sess,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics:          m,
		log:              log,
		onSessionExpired: onSessionExpired,
	}
}

// callState — состояние логического запроса. Через callRetrying запрос
// проходит не более одного раза, что и ограничивает refresh одним на запрос.
type callState int

const (
	callSent callState = iota
	callRetrying
	callDone
)

// call — один логический запрос вместе с его маркером повтора.
type call struct {
	method string
	path   string
	body   []byte
	state  callState
}

// reply — прочитанный ответ удалённого API.
type reply struct {
	status int
	header http.Header
	body   []byte
}

// do выполняет логический запрос через весь конвейер и декодирует успешное
// тело в out (если out != nil).
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	rep, err := c.exec(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(rep.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(rep.body, out); err != nil {
		return fmt.Errorf("api.do: decode %s %s: %w", method, path, err)
	}
	return nil
}

// exec — конвейер целиком: подстановка токена, один dispatch и ветка
// восстановления после 401.
func (c *Client) exec(ctx context.Context, method, path string, body any) (*reply, error) {
	const op = "api.exec"

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		payload = data
	}
	cl := &call{method: method, path: path, body: payload, state: callSent}

	rep, err := c.dispatch(ctx, cl)
	if err != nil {
		// Сетевой сбой: ответа нет, повторять нечего.
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if rep.status == http.StatusUnauthorized && cl.state == callSent && !isAuthEndpoint(cl.path) {
		cl.state = callRetrying
		authErr := parseError(rep.status, rep.body)

		c.metrics.RefreshAttempts.Inc()
		newToken, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			c.metrics.RefreshFailures.Inc()
			c.expireSession(ctx)
			return nil, fmt.Errorf("%s: %w", op, refreshErr)
		}
		if newToken == "" {
			// Refresh ответил успехом без токена: восстановиться нечем,
			// исходный отказ уходит вызывающему.
			return nil, authErr
		}
		if err := c.sess.SetToken(ctx, newToken); err != nil {
			c.log.Error("failed to store refreshed token", sl.Err(err))
		}

		c.metrics.Retries.Inc()
		rep, err = c.dispatch(ctx, cl)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cl.state = callDone
	}

	if rep.status >= http.StatusBadRequest {
		return nil, parseError(rep.status, rep.body)
	}
	return rep, nil
}

// dispatch отправляет один HTTP-запрос. Токен читается из стора на каждой
// попытке, а не кэшируется: повтор после refresh уходит уже с новым токеном.
func (c *Client) dispatch(ctx context.Context, cl *call) (*reply, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if cl.body != nil {
		bodyReader = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token := c.sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	c.metrics.Requests.WithLabelValues(cl.method, statusClass(resp.StatusCode)).Inc()
	return &reply{status: resp.StatusCode, header: resp.Header, body: data}, nil
}

// refresh обменивает истёкший токен на новый. Идёт мимо exec: путь
// /auth/refresh исключён из ветки восстановления, рекурсия невозможна.
func (c *Client) refresh(ctx context.Context) (string, error) {
	const op = "api.refresh"

	cl := &call{method: http.MethodPost, path: "/auth/refresh", state: callSent}
	rep, err := c.dispatch(ctx, cl)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if rep.status >= http.StatusBadRequest {
		return "", fmt.Errorf("%s: %w", op, parseError(rep.status, rep.body))
	}
	token, _ := normalizeAuth(rep.header, rep.body)
	return token, nil
}

// expireSession — фатальное истечение сессии: состояние очищается, приложение
// уводит клиента на вход.
func (c *Client) expireSession(ctx context.Context) {
	if err := c.sess.Logout(ctx); err != nil {
		c.log.Error("failed to clear expired session", sl.Err(err))
	}
	c.log.Info("session expired, redirecting to login")
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}

// isAuthEndpoint исключает login и refresh из ветки восстановления: отказ на
// них — не признак истёкшей сессии.
func isAuthEndpoint(path string) bool {
	return strings.Contains(path, "/auth/login") || strings.Contains(path, "/auth/refresh")
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
