// Package session реализует персистентный стор текущей сессии: bearer-токен
// и профиль пользователя.
//
// Это единственный владелец состояния сессии в процессе. Мутации идут только
// через Login/Logout/UpdateUser/SetToken, каждая синхронно сохраняется в
// хранилище и затем уведомляет подписчиков. Признак аутентификации всегда
// выводится из наличия токена и отдельно не хранится — рассинхронизация
// флага и токена невозможна по построению.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/models"
	"github.com/kurumisoft/panel-agent/internal/storage"
)

// Store персистентный стор сессии.
type Store struct {
	kv  storage.KV
	log *slog.Logger

	mu      sync.RWMutex
	state   state
	subs    map[int]func()
	nextSub int
}

// state — то, что уходит в хранилище. Формат совпадает с записью
// "auth-storage": токен и профиль вместе.
type state struct {
	Token string       `json:"token,omitempty"`
	User  *models.User `json:"user,omitempty"`
}

// New создаёт стор и гидрирует его из хранилища.
//
// Отсутствующая или повреждённая запись означает разлогиненное состояние,
// ошибкой это не считается.
func New(ctx context.Context, kv storage.KV, log *slog.Logger) *Store {
	s := &Store{
		kv:   kv,
		log:  log,
		subs: make(map[int]func()),
	}
	data, found, err := kv.Load(ctx, storage.SessionKey)
	if err != nil {
		log.Warn("failed to load persisted session, starting logged out", sl.Err(err))
		return s
	}
	if !found {
		return s
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn("persisted session is malformed, starting logged out", sl.Err(err))
		return s
	}
	s.state = st
	return s
}

// Login безусловно перезаписывает токен и профиль и сохраняет состояние.
// Формат токена не проверяется: подходит любая непустая строка.
func (s *Store) Login(ctx context.Context, token string, user models.User) error {
	s.mu.Lock()
	s.state = state{Token: token, User: &user}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// Logout очищает токен и профиль. Состояние сохраняется очищенным, а не
// удаляется, чтобы подписчики и повторная гидрация видели согласованную запись.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.state = state{}
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// UpdateUser накладывает патч на текущий профиль. Без активного профиля — no-op.
func (s *Store) UpdateUser(ctx context.Context, patch models.UserPatch) error {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return nil
	}
	updated := patch.Apply(*s.state.User)
	s.state.User = &updated
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// SetToken заменяет токен на месте, не трогая профиль. Используется только
// конвейером запросов после успешного refresh.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	s.state.Token = token
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// Token возвращает текущий токен, пустая строка — нет сессии.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User возвращает копию профиля или nil, если сессии нет.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// IsAuthenticated выводится из наличия токена.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token != ""
}

// Subscribe регистрирует колбэк на изменение сессии и возвращает функцию отписки.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	if err := s.kv.Save(ctx, storage.SessionKey, data); err != nil {
		s.log.Error("failed to persist session", sl.Err(err))
		return err
	}
	return nil
}

func (s *Store) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}
