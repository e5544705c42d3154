// Package read отдаёт текущие настройки интерфейса вместе с разрешённым
// значением презентационного атрибута темы.
package read

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/kurumisoft/panel-agent/internal/http/response"
	"github.com/kurumisoft/panel-agent/internal/settings"
	"github.com/kurumisoft/panel-agent/internal/theme"
)

// Handler обрабатывает запрос чтения настроек.
type Handler struct {
	store    *settings.Store
	resolved *theme.Resolved
}

// New создает новый экземпляр Handler.
func New(store *settings.Store, resolved *theme.Resolved) *Handler {
	return &Handler{store: store, resolved: resolved}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"language":   h.store.Language(),
		"theme":      h.store.Theme(),
		"data_theme": h.resolved.Attribute(),
	}))
}
