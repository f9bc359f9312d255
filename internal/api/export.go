package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/export"
	"github.com/erazemk/locography/internal/store"
)

// ExportHandler serves catalog exports.
type ExportHandler struct {
	DB *sqlx.DB
}

// Items handles GET /api/v1/export/items.xlsx.
func (h *ExportHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListAllItems(r.Context(), h.DB)
	if err != nil {
		serviceError(w, r, err, "failed to list items")
		return
	}

	// Buffered so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteItems(&buf, items); err != nil {
		serviceError(w, r, err, "failed to export items")
		return
	}

	filename := fmt.Sprintf("locography-items-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}
