// Package settings реализует персистентный стор настроек интерфейса:
// язык и тема оформления.
//
// Значения принимаются только из закрытых множеств; каждая мутация синхронно
// сохраняется в хранилище и уведомляет подписчиков. Тема "system" хранится
// как есть — разрешение в light/dark происходит при применении, не при записи.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kurumisoft/panel-agent/internal/lib/sl"
	"github.com/kurumisoft/panel-agent/internal/storage"
)

// Language язык интерфейса.
type Language string

// Theme тема оформления.
type Theme string

// Допустимые значения настроек.
const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"

	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Значения по умолчанию при отсутствующей или повреждённой записи.
const (
	defaultLanguage = LanguageRU
	defaultTheme    = ThemeLight
)

// ErrUnknownValue значение вне закрытого множества.
var ErrUnknownValue = fmt.Errorf("unknown settings value")

// Store персистентный стор настроек.
type Store struct {
	kv  storage.KV
	log *slog.Logger

	mu      sync.RWMutex
	state   state
	subs    map[int]func()
	nextSub int
}

type state struct {
	Language Language `json:"language"`
	Theme    Theme    `json:"theme"`
}

// New создаёт стор и гидрирует его из хранилища. Повреждённая запись
// молча заменяется значениями по умолчанию.
func New(ctx context.Context, kv storage.KV, log *slog.Logger) *Store {
	s := &Store{
		kv:    kv,
		log:   log,
		state: state{Language: defaultLanguage, Theme: defaultTheme},
		subs:  make(map[int]func()),
	}
	data, found, err := kv.Load(ctx, storage.SettingsKey)
	if err != nil || !found {
		if err != nil {
			log.Warn("failed to load persisted settings, using defaults", sl.Err(err))
		}
		return s
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		log.Warn("persisted settings are malformed, using defaults", sl.Err(err))
		return s
	}
	if validLanguage(st.Language) {
		s.state.Language = st.Language
	}
	if validTheme(st.Theme) {
		s.state.Theme = st.Theme
	}
	return s
}

// Language возвращает текущий язык.
func (s *Store) Language() Language {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Language
}

// Theme возвращает текущую тему.
func (s *Store) Theme() Theme {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Theme
}

// SetLanguage устанавливает язык из закрытого множества и сохраняет состояние.
func (s *Store) SetLanguage(ctx context.Context, lang Language) error {
	if !validLanguage(lang) {
		return fmt.Errorf("set language %q: %w", lang, ErrUnknownValue)
	}
	s.mu.Lock()
	s.state.Language = lang
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// SetTheme устанавливает тему из закрытого множества и сохраняет состояние.
func (s *Store) SetTheme(ctx context.Context, theme Theme) error {
	if !validTheme(theme) {
		return fmt.Errorf("set theme %q: %w", theme, ErrUnknownValue)
	}
	s.mu.Lock()
	s.state.Theme = theme
	err := s.persistLocked(ctx)
	s.mu.Unlock()

	s.notify()
	return err
}

// Subscribe регистрирует колбэк на изменение настроек и возвращает функцию отписки.
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
	if err := s.kv.Save(ctx, storage.SettingsKey, data); err != nil {
		s.log.Error("failed to persist settings", sl.Err(err))
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

func validLanguage(l Language) bool {
	return l == LanguageRU || l == LanguageEN
}

func validTheme(t Theme) bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}
