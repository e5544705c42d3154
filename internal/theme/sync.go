// Package theme зеркалирует настройку темы на презентационный слой.
//
// Синхронизатор подписан на стор настроек: "dark" и "light" применяются
// напрямую, "system" разрешается через источник системной схемы и следит
// за её изменениями ровно до тех пор, пока выбрана "system" — при уходе
// с неё подписка на источник снимается сразу, слушатели не протекают.
package theme

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kurumisoft/panel-agent/internal/settings"
)

// Scheme разрешённая цветовая схема.
type Scheme string

// Значения схемы.
const (
	SchemeLight Scheme = "light"
	SchemeDark  Scheme = "dark"
)

// Applier — презентационный слой: сток для применённой схемы.
type Applier interface {
	Apply(dark bool)
}

// Source — источник системной цветовой схемы.
type Source interface {
	Current() Scheme
	Subscribe(fn func(Scheme)) (unsubscribe func())
}

// Synchronizer реактивный эффект синхронизации темы.
type Synchronizer struct {
	settings *settings.Store
	source   Source
	applier  Applier
	log      *slog.Logger

	mu            sync.Mutex
	unsubSource   func()
	unsubSettings func()
}

// Start создаёт синхронизатор, применяет текущую тему и подписывается
// на её изменения.
func Start(st *settings.Store, source Source, applier Applier, log *slog.Logger) *Synchronizer {
	s := &Synchronizer{
		settings: st,
		source:   source,
		applier:  applier,
		log:      log,
	}
	s.unsubSettings = st.Subscribe(s.apply)
	s.apply()
	return s
}

// Stop снимает все подписки синхронизатора.
func (s *Synchronizer) Stop() {
	if s.unsubSettings != nil {
		s.unsubSettings()
	}
	s.mu.Lock()
	s.dropSourceLocked()
	s.mu.Unlock()
}

func (s *Synchronizer) apply() {
	theme := s.settings.Theme()

	s.mu.Lock()
	if theme == settings.ThemeSystem {
		if s.unsubSource == nil {
			s.unsubSource = s.source.Subscribe(s.onSchemeChange)
		}
	} else {
		s.dropSourceLocked()
	}
	s.mu.Unlock()

	switch theme {
	case settings.ThemeDark:
		s.applier.Apply(true)
	case settings.ThemeLight:
		s.applier.Apply(false)
	case settings.ThemeSystem:
		dark := s.source.Current() == SchemeDark
		s.applier.Apply(dark)
	}
	s.log.Debug("theme applied", slog.String("theme", string(theme)))
}

// onSchemeChange вызывается источником при смене системной схемы.
// Срабатывает только пока выбрана тема "system".
func (s *Synchronizer) onSchemeChange(scheme Scheme) {
	if s.settings.Theme() != settings.ThemeSystem {
		return
	}
	s.applier.Apply(scheme == SchemeDark)
}

func (s *Synchronizer) dropSourceLocked() {
	if s.unsubSource != nil {
		s.unsubSource()
		s.unsubSource = nil
	}
}

// Resolved — применённая схема в памяти. Локальная поверхность отдаёт её UI
// как значение презентационного атрибута data-theme.
type Resolved struct {
	dark atomic.Bool
}

// Apply реализует Applier.
func (r *Resolved) Apply(dark bool) {
	r.dark.Store(dark)
}

// Dark возвращает true, если применена тёмная схема.
func (r *Resolved) Dark() bool {
	return r.dark.Load()
}

// Attribute возвращает значение атрибута data-theme: "dark" или пустую строку.
func (r *Resolved) Attribute() string {
	if r.dark.Load() {
		return "dark"
	}
	return ""
}
