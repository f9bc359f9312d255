package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

const dashboardItems = 8

// Dashboard handles GET /.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := store.GetStats(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to get stats for dashboard", "error", err)
		stats = &model.Stats{}
	}
	items, err := store.ListItems(r.Context(), s.DB, model.ItemFilter{Limit: dashboardItems})
	if err != nil {
		slog.Error("failed to list items for dashboard", "error", err)
	}
	movements, err := store.ListRecentMovements(r.Context(), s.DB, 10)
	if err != nil {
		slog.Error("failed to list movements for dashboard", "error", err)
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		Stats           *model.Stats
		RecentItems     []model.Item
		RecentMovements []model.Movement
	}{
		PageData:        s.page(r, "Dashboard"),
		Stats:           stats,
		RecentItems:     items,
		RecentMovements: movements,
	})
}
