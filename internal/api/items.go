package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/llm"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

// multipartOverhead is allowed on top of the upload size for form fields and boundaries.
const multipartOverhead = 1 << 20

// ItemsHandler handles item, image and movement endpoints.
type ItemsHandler struct {
	DB            *sqlx.DB
	Catalog       *catalog.Service
	Describer     Describer
	MaxUploadSize int64
}

type itemDetail struct {
	model.Item
	Images []model.ItemImage `json:"images"`
}

type moveRequest struct {
	LocationID model.Optional[int64] `json:"location_id"`
	Notes      string                `json:"notes"`
}

// List handles GET /api/v1/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	var f model.ItemFilter
	var err error
	if f.CategoryID, err = queryID(r, "category_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.LocationID, err = queryID(r, "location_id"); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Skip, err = queryInt(r, "skip", 0); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.Limit, err = queryInt(r, "limit", store.DefaultListLimit); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := store.ListItems(r.Context(), h.DB, f)
	if err != nil {
		serviceError(w, r, err, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/v1/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, req)
	if err != nil {
		serviceError(w, r, err, "failed to create item")
		return
	}

	slog.Info("item created", "item_id", item.ID, "name", item.Name)
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/v1/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	images, err := store.ListItemImages(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to list item images")
		return
	}
	if images == nil {
		images = []model.ItemImage{}
	}

	jsonResponse(w, http.StatusOK, itemDetail{Item: *item, Images: images})
}

// Update handles PUT /api/v1/items/{id}. Only the fields present in the body change.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req model.ItemPatch
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != nil {
		*req.Name = strings.TrimSpace(*req.Name)
		if *req.Name == "" {
			jsonError(w, http.StatusBadRequest, "name must not be empty")
			return
		}
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		jsonError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, req)
	if err != nil {
		serviceError(w, r, err, "failed to update item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Catalog.DeleteItem(r.Context(), id); err != nil {
		serviceError(w, r, err, "failed to delete item")
		return
	}

	slog.Info("item deleted", "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// ListImages handles GET /api/v1/items/{id}/images.
func (h *ItemsHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	images, err := store.ListItemImages(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to list item images")
		return
	}
	if images == nil {
		images = []model.ItemImage{}
	}
	jsonResponse(w, http.StatusOK, images)
}

// UploadImage handles POST /api/v1/items/{id}/images.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, filename, ok := readUpload(w, r, h.MaxUploadSize)
	if !ok {
		return
	}

	primary := false
	if v := r.FormValue("is_primary"); v != "" {
		var err error
		if primary, err = strconv.ParseBool(v); err != nil {
			jsonError(w, http.StatusBadRequest, "invalid is_primary")
			return
		}
	}

	img, err := h.Catalog.AttachImage(r.Context(), id, data, filename, primary)
	if err != nil {
		serviceError(w, r, err, "failed to save image")
		return
	}

	slog.Info("image uploaded", "item_id", id, "image_id", img.ID, "size", img.Size)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message":  "image uploaded",
		"image_id": img.ID,
		"image":    img,
	})
}

// SetPrimaryImage handles PUT /api/v1/items/{id}/images/{imageID}/primary.
func (h *ItemsHandler) SetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	imageID, ok2 := pathID(r, "imageID")
	if !ok || !ok2 {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	found, err := store.SetPrimaryImage(r.Context(), h.DB, id, imageID)
	if err != nil {
		serviceError(w, r, err, "failed to set primary image")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "image not found")
		return
	}

	img, err := store.GetImage(r.Context(), h.DB, imageID)
	if err != nil {
		serviceError(w, r, err, "failed to get image")
		return
	}
	jsonResponse(w, http.StatusOK, img)
}

// DeleteImage handles DELETE /api/v1/items/{id}/images/{imageID}.
func (h *ItemsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	imageID, ok2 := pathID(r, "imageID")
	if !ok || !ok2 {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.Catalog.DeleteImage(r.Context(), id, imageID); err != nil {
		serviceError(w, r, err, "failed to delete image")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image deleted"})
}

// ImageFile handles GET /api/v1/images/{imageID}/file.
func (h *ItemsHandler) ImageFile(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(r, "imageID")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid image id")
		return
	}

	img, data, err := h.Catalog.ImageFile(r.Context(), imageID)
	if err != nil {
		serviceError(w, r, err, "failed to get image")
		return
	}

	w.Header().Set("Content-Type", img.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}

// Move handles POST /api/v1/items/{id}/move. A null location_id takes the
// item out of every location.
func (h *ItemsHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.LocationID.Set {
		jsonError(w, http.StatusBadRequest, "location_id required")
		return
	}

	mv, err := store.MoveItem(r.Context(), h.DB, id, req.LocationID.Value, strings.TrimSpace(req.Notes))
	if err != nil {
		serviceError(w, r, err, "failed to move item")
		return
	}
	if mv == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item moved", "item_id", id, "from", mv.FromLocationID, "to", mv.ToLocationID)
	jsonResponse(w, http.StatusCreated, mv)
}

// GetHistory handles GET /api/v1/items/{id}/history.
func (h *ItemsHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	history, err := store.GetItemHistory(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get item history")
		return
	}
	if history == nil {
		history = []model.Movement{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// Describe handles POST /api/v1/items/{id}/describe. The suggestion is not
// saved; generated is false when the fallback was used.
func (h *ItemsHandler) Describe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		serviceError(w, r, err, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	description, generated := describe(r, h.Describer, item)
	jsonResponse(w, http.StatusOK, map[string]any{
		"description": description,
		"generated":   generated,
	})
}

func describe(r *http.Request, d Describer, item *model.Item) (string, bool) {
	fallback := item.Description
	if fallback == "" {
		fallback = item.Name
	}
	if d == nil {
		return fallback, false
	}

	description, err := d.GenerateDescription(r.Context(), item.Name, item.Description)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			slog.Warn("generating description", "item_id", item.ID, "error", err)
		}
		return description, false
	}
	return description, true
}

// readUpload reads the multipart "file" field, bounded by maxSize. It writes
// the error response itself and reports whether the caller may continue.
func readUpload(w http.ResponseWriter, r *http.Request, maxSize int64) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "file required")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "failed to read file")
		return nil, "", false
	}
	if int64(len(data)) > maxSize {
		jsonError(w, http.StatusBadRequest, "file too large")
		return nil, "", false
	}
	if len(data) == 0 {
		jsonError(w, http.StatusBadRequest, "file is empty")
		return nil, "", false
	}
	return data, header.Filename, true
}
