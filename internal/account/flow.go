// Package account реализует поток изменения профиля и пароля с подтверждением.
//
// Машина состояний: idle → awaiting-confirmation → submitting → (idle |
// awaiting-confirmation с ошибкой). В awaiting-confirmation можно попасть
// только с валидной формой; отправка требует повторного ввода текущего
// пароля. Ошибка сервера не сбрасывает введённые данные — пользователь
// повторяет подтверждение.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/go-playground/validator"

	"github.com/kurumisoft/panel-agent/internal/api"
	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
	"github.com/kurumisoft/panel-agent/internal/session"
)

// State состояние потока.
type State string

// Состояния машины.
const (
	StateIdle       State = "idle"
	StateAwaiting   State = "awaiting-confirmation"
	StateSubmitting State = "submitting"
)

// Kind вид подтверждаемой мутации.
type Kind string

// Виды мутаций.
const (
	KindProfile  Kind = "profile-update"
	KindPassword Kind = "password-change"
)

// Ошибки переходов машины состояний.
var (
	ErrNotAwaiting     = errors.New("no mutation is awaiting confirmation")
	ErrSubmitting      = errors.New("mutation is being submitted")
	ErrEmptyPassword   = errors.New("current password is required")
	ErrPasswordsDiffer = errors.New("passwords do not match")
)

// Тексты, в которые транслируются коды ошибок сервера.
const (
	msgPasswordIncorrect = "Неверный пароль"
	msgPasswordDuplicate = "Новый пароль совпадает с текущим"
	msgProfileUpdated    = "Профиль успешно обновлён"
	msgPasswordChanged   = "Пароль изменён. Все другие сессии завершены."
)

// ProfileForm поля профиля; все опциональны, но форматы проверяются.
type ProfileForm struct {
	Email       string `json:"email" validate:"omitempty,email"`
	FirstName   string `json:"firstName" validate:"omitempty,max=64"`
	LastName    string `json:"lastName" validate:"omitempty,max=64"`
	SurName     string `json:"surName" validate:"omitempty,max=64"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,min=5,max=20"`
}

// PasswordForm новый пароль с подтверждением.
type PasswordForm struct {
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// Mutator — операции удалённого API, которые подтверждает поток.
type Mutator interface {
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
}

// Flow машина состояний подтверждаемых мутаций. Одна на процесс, как и сессия.
type Flow struct {
	client   Mutator
	sess     *session.Store
	validate *validator.Validate
	log      *slog.Logger

	mu           sync.Mutex
	state        State
	kind         Kind
	profileForm  ProfileForm
	passwordForm PasswordForm
	lastError    string
	lastSuccess  string
}

// Snapshot срез состояния потока для локальной поверхности.
type Snapshot struct {
	State   State  `json:"state"`
	Kind    Kind   `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
	Success string `json:"success,omitempty"`
}

// NewFlow создаёт поток в состоянии idle.
func NewFlow(client Mutator, sess *session.Store, log *slog.Logger) *Flow {
	return &Flow{
		client:   client,
		sess:     sess,
		validate: validator.New(),
		log:      log,
		state:    StateIdle,
	}
}

// BeginProfileUpdate валидирует форму профиля и переводит поток в
// awaiting-confirmation. Невалидная форма оставляет поток в idle.
func (f *Flow) BeginProfileUpdate(form ProfileForm) error {
	if err := f.validate.Struct(form); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	f.state = StateAwaiting
	f.kind = KindProfile
	f.profileForm = form
	f.lastError = ""
	f.lastSuccess = ""
	return nil
}

// BeginPasswordChange валидирует форму пароля (длина, совпадение) и переводит
// поток в awaiting-confirmation. Проверка идёт до любого сетевого вызова.
func (f *Flow) BeginPasswordChange(form PasswordForm) error {
	if form.NewPassword != form.ConfirmPassword {
		return ErrPasswordsDiffer
	}
	if err := f.validate.Struct(form); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	f.state = StateAwaiting
	f.kind = KindPassword
	f.passwordForm = form
	f.lastError = ""
	f.lastSuccess = ""
	return nil
}

// Confirm применяет ожидающую мутацию, подтверждённую текущим паролем.
//
// Успех возвращает поток в idle; отказ сервера оставляет его в
// awaiting-confirmation с переведённой ошибкой, введённая форма сохраняется.
func (f *Flow) Confirm(ctx context.Context, currentPassword string) error {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return ErrSubmitting
	case StateIdle:
		f.mu.Unlock()
		return ErrNotAwaiting
	}
	if currentPassword == "" {
		f.lastError = "Введите текущий пароль"
		f.mu.Unlock()
		return ErrEmptyPassword
	}
	kind := f.kind
	profileForm := f.profileForm
	passwordForm := f.passwordForm
	f.state = StateSubmitting
	f.lastError = ""
	f.mu.Unlock()

	var submitErr error
	if kind == KindProfile {
		submitErr = f.submitProfile(ctx, currentPassword, profileForm)
	} else {
		submitErr = f.client.ChangePassword(ctx, currentPassword, passwordForm.NewPassword)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if submitErr != nil {
		f.state = StateAwaiting
		f.lastError = translateError(submitErr)
		f.log.Error("mutation confirmation failed", sl.Err(submitErr))
		return submitErr
	}

	f.state = StateIdle
	if kind == KindProfile {
		f.lastSuccess = msgProfileUpdated
	} else {
		f.lastSuccess = msgPasswordChanged
		f.passwordForm = PasswordForm{}
	}
	return nil
}

// Cancel закрывает подтверждение. Во время отправки отмена запрещена.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return ErrSubmitting
	}
	f.state = StateIdle
	f.lastError = ""
	return nil
}

// Snapshot возвращает текущее состояние потока.
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		State:   f.state,
		Kind:    f.kind,
		Error:   f.lastError,
		Success: f.lastSuccess,
	}
}

func (f *Flow) submitProfile(ctx context.Context, currentPassword string, form ProfileForm) error {
	req := api.UpdateProfileRequest{
		Password:    currentPassword,
		Email:       form.Email,
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		SurName:     form.SurName,
		PhoneNumber: form.PhoneNumber,
	}
	updated, err := f.client.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}
	return f.sess.UpdateUser(ctx, patchFromUser(updated))
}

// patchFromUser превращает вернувшийся профиль в патч: пустые поля ответа
// не затирают сохранённые значения.
func patchFromUser(u *models.User) models.UserPatch {
	var patch models.UserPatch
	if u == nil {
		return patch
	}
	set := func(v string) *string {
		if v == "" {
			return nil
		}
		return &v
	}
	patch.Email = set(u.Email)
	patch.FirstName = set(u.FirstName)
	patch.LastName = set(u.LastName)
	patch.SurName = set(u.SurName)
	patch.PhoneNumber = set(u.PhoneNumber)
	return patch
}

// translateError переводит известные коды сервера в тексты для пользователя,
// незнакомые сообщения проходят как есть.
func translateError(err error) string {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return fmt.Sprintf("Не удалось выполнить операцию: %v", err)
	}
	switch {
	case strings.Contains(apiErr.Message, "PASSWORDS_IS_DUPLICATE"):
		return msgPasswordDuplicate
	case strings.Contains(apiErr.Message, "PASSWORD_IS_INCORRECT"):
		return msgPasswordIncorrect
	default:
		return apiErr.Message
	}
}
