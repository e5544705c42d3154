package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kurumisoft/panel-agent/internal/models"
)

// Login выполняет вход и возвращает токен с профилем пользователя.
// Если сервер не вернул профиль, используется имя из запроса.
func (c *Client) Login(ctx context.Context, req LoginRequest) (string, models.User, error) {
	const op = "api.Login"

	rep, err := c.exec(ctx, http.MethodPost, "/auth/login", req)
	if err != nil {
		return "", models.User{}, err
	}
	token, user := normalizeAuth(rep.header, rep.body)
	if token == "" {
		return "", models.User{}, fmt.Errorf("%s: %w", op, ErrNoToken)
	}
	if user == nil {
		user = &models.User{Username: req.Username}
	}
	return token, *user, nil
}

// Register создаёт аккаунт; форма ответа совпадает с login.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (string, models.User, error) {
	const op = "api.Register"

	rep, err := c.exec(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return "", models.User{}, err
	}
	token, user := normalizeAuth(rep.header, rep.body)
	if token == "" {
		return "", models.User{}, fmt.Errorf("%s: %w", op, ErrNoToken)
	}
	if user == nil {
		user = &models.User{Username: req.Username}
	}
	return token, *user, nil
}

// Logout завершает сессию на сервере. Вызывающий очищает локальную сессию
// независимо от результата.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/logout", nil, nil)
}

// LogoutAll завершает все сессии аккаунта на сервере.
func (c *Client) LogoutAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/logout_all", nil, nil)
}

// ChangePassword меняет пароль, подтверждая операцию старым паролем.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	return c.do(ctx, http.MethodPost, "/auth/change_password", req, nil)
}

// UpdateProfile обновляет профиль и возвращает его в нормализованном виде.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*models.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodPatch, "/users/update_info", req, &payload); err != nil {
		return nil, err
	}
	user := payload.toModel()
	return &user, nil
}

// GetProfile возвращает профиль текущего пользователя.
func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &payload); err != nil {
		return nil, err
	}
	user := payload.toModel()
	return &user, nil
}

// ListServers возвращает инвентарь серверов аккаунта.
func (c *Client) ListServers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	if err := c.do(ctx, http.MethodGet, "/servers", nil, &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// GetServer возвращает один сервер по идентификатору.
func (c *Client) GetServer(ctx context.Context, id string) (*models.Server, error) {
	var server models.Server
	if err := c.do(ctx, http.MethodGet, "/servers/"+id, nil, &server); err != nil {
		return nil, err
	}
	return &server, nil
}

// CreateServer заказывает новый сервер.
func (c *Client) CreateServer(ctx context.Context, req models.CreateServerRequest) (*models.Server, error) {
	var server models.Server
	if err := c.do(ctx, http.MethodPost, "/servers", req, &server); err != nil {
		return nil, err
	}
	return &server, nil
}

// GetBalance возвращает текущий баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context) (*models.Balance, error) {
	var balance models.Balance
	if err := c.do(ctx, http.MethodGet, "/billing/balance", nil, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// GetBillingHistory возвращает историю платежей.
func (c *Client) GetBillingHistory(ctx context.Context) ([]models.PaymentRecord, error) {
	var history []models.PaymentRecord
	if err := c.do(ctx, http.MethodGet, "/billing/history", nil, &history); err != nil {
		return nil, err
	}
	return history, nil
}
