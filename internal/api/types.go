// Package api реализует клиент удалённого API хостинга с конвейером
// авторизованных запросов: подстановкой bearer-токена, однократным
// прозрачным refresh-and-retry при 401 и типизированными конечными точками.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kurumisoft/panel-agent/internal/models"
)

// LoginRequest учётные данные для входа.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterRequest данные регистрации нового аккаунта.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=50"`
	Password    string `json:"password" validate:"required,min=8"`
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	SurName     string `json:"surName,omitempty"`
	PhoneNumber string `json:"phoneNumber" validate:"required"`
}

// ChangePasswordRequest тело запроса смены пароля.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest тело запроса обновления профиля: изменённые поля
// плюс текущий пароль для подтверждения.
type UpdateProfileRequest struct {
	Password    string `json:"password"`
	Email       string `json:"email,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	SurName     string `json:"surName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Error типизированная ошибка удалённого API.
type Error struct {
	Status  int    // HTTP-статус ответа
	Message string // Сообщение сервера как есть (включая коды вида PASSWORD_IS_INCORRECT)
}

func (e *Error) Error() string {
	return fmt.Sprintf("remote api: %s (status %d)", e.Message, e.Status)
}

// IsUnauthorized сообщает, является ли ошибка отказом в авторизации (401).
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// ErrNoToken сервер ответил успехом, но токен не найден ни в заголовке, ни в теле.
var ErrNoToken = errors.New("no token in auth response")

// tokenHeader — заголовок, в котором API может вернуть новый токен.
const tokenHeader = "access_token"

// authResponse — сырой ответ login/register/refresh. Токен может лежать
// в любом из трёх полей, профиль — во вложенном объекте user.
type authResponse struct {
	AccessToken    string       `json:"access_token"`
	AccessTokenAlt string       `json:"accessToken"`
	Token          string       `json:"token"`
	User           *userPayload `json:"user"`
}

// userPayload — профиль в той форме, в которой его отдаёт сервер:
// все поля опциональны, идентификатор бывает числом.
type userPayload struct {
	ID          json.Number `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	SurName     string      `json:"surName"`
	PhoneNumber string      `json:"phoneNumber"`
}

func (p userPayload) toModel() models.User {
	return models.User{
		ID:          p.ID.String(),
		Username:    p.Username,
		Email:       p.Email,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		SurName:     p.SurName,
		PhoneNumber: p.PhoneNumber,
	}
}

// normalizeAuth — единая точка нормализации ответа авторизации.
//
// Токен: заголовок access_token, затем поля тела access_token, accessToken,
// token. Профиль: вложенный user, иначе плоская форма в корне тела.
func normalizeAuth(header http.Header, body []byte) (token string, user *models.User) {
	var resp authResponse
	_ = json.Unmarshal(body, &resp)

	token = header.Get(tokenHeader)
	for _, candidate := range []string{resp.AccessToken, resp.AccessTokenAlt, resp.Token} {
		if token != "" {
			break
		}
		token = candidate
	}

	payload := resp.User
	if payload == nil {
		var flat userPayload
		if err := json.Unmarshal(body, &flat); err == nil && flat.Username != "" {
			payload = &flat
		}
	}
	if payload != nil {
		u := payload.toModel()
		user = &u
	}
	return token, user
}

// errorBody — формы тела ошибки: message строкой или массивом, либо error.
type errorBody struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
}

// parseError собирает *Error из ответа с кодом >= 400. Тело к этому моменту
// уже прочитано вызывающим.
func parseError(status int, body []byte) *Error {
	apiErr := &Error{Status: status, Message: http.StatusText(status)}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return apiErr
	}
	if eb.Error != "" {
		apiErr.Message = eb.Error
	}
	if len(eb.Message) == 0 {
		return apiErr
	}
	var msg string
	if err := json.Unmarshal(eb.Message, &msg); err == nil {
		apiErr.Message = msg
		return apiErr
	}
	var msgs []string
	if err := json.Unmarshal(eb.Message, &msgs); err == nil && len(msgs) > 0 {
		apiErr.Message = strings.Join(msgs, ", ")
	}
	return apiErr
}
