package theme

import (
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// GSettingsSource читает системную цветовую схему рабочего стола, опрашивая
// gsettings с заданным интервалом. Подписчики уведомляются только при смене
// значения. Если gsettings недоступен, схема считается светлой.
type GSettingsSource struct {
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	current Scheme
	subs    map[int]func(Scheme)
	nextSub int

	stop chan struct{}
	done chan struct{}
}

// NewGSettingsSource создаёт источник и запускает фоновый опрос.
func NewGSettingsSource(interval time.Duration, log *slog.Logger) *GSettingsSource {
	g := &GSettingsSource{
		interval: interval,
		log:      log,
		subs:     make(map[int]func(Scheme)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	g.current = querySystemScheme()
	go g.poll()
	return g
}

// Current возвращает последнюю прочитанную схему.
func (g *GSettingsSource) Current() Scheme {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Subscribe регистрирует колбэк на смену схемы и возвращает функцию отписки.
func (g *GSettingsSource) Subscribe(fn func(Scheme)) func() {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.subs, id)
	}
}

// Close останавливает фоновый опрос.
func (g *GSettingsSource) Close() {
	close(g.stop)
	<-g.done
}

func (g *GSettingsSource) poll() {
	defer close(g.done)
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			scheme := querySystemScheme()

			g.mu.Lock()
			if scheme == g.current {
				g.mu.Unlock()
				continue
			}
			g.current = scheme
			fns := make([]func(Scheme), 0, len(g.subs))
			for _, fn := range g.subs {
				fns = append(fns, fn)
			}
			g.mu.Unlock()

			g.log.Debug("system color scheme changed", slog.String("scheme", string(scheme)))
			for _, fn := range fns {
				fn(scheme)
			}
		}
	}
}

func querySystemScheme() Scheme {
	out, err := exec.Command("gsettings", "get", "org.gnome.desktop.interface", "color-scheme").Output()
	if err != nil {
		return SchemeLight
	}
	if strings.Contains(string(out), "prefer-dark") {
		return SchemeDark
	}
	return SchemeLight
}
