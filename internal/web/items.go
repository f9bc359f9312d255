package web

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/llm"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

type itemsPage struct {
	PageData
	Items      []model.Item
	Locations  []model.Location
	Categories []model.Category
	CategoryID *int64
	LocationID *int64
	Skip       int
	NextSkip   int
	PrevSkip   int
}

const itemsPerPage = 50

// ItemsPage handles GET /items.
func (s *Server) ItemsPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := itemsPage{PageData: s.page(r, "Items")}

	var err error
	if data.CategoryID, err = formID(r, "category_id"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if data.LocationID, err = formID(r, "location_id"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data.Skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	data.Skip = max(data.Skip, 0)

	data.Items, err = store.ListItems(ctx, s.DB, model.ItemFilter{
		CategoryID: data.CategoryID,
		LocationID: data.LocationID,
		Skip:       data.Skip,
		Limit:      itemsPerPage,
	})
	if err != nil {
		slog.Error("failed to list items", "error", err)
	}
	if len(data.Items) == itemsPerPage {
		data.NextSkip = data.Skip + itemsPerPage
	}
	data.PrevSkip = max(data.Skip-itemsPerPage, 0)

	s.loadChoices(r, &data.Locations, &data.Categories)
	s.Templates.Render(w, "items.html", &data)
}

// loadChoices loads the locations and categories offered in select boxes.
func (s *Server) loadChoices(r *http.Request, locations *[]model.Location, categories *[]model.Category) {
	var err error
	if *locations, err = store.ListLocations(r.Context(), s.DB, store.LocationFilter{}); err != nil {
		slog.Error("failed to list locations", "error", err)
	}
	if *categories, err = store.ListCategories(r.Context(), s.DB, nil); err != nil {
		slog.Error("failed to list categories", "error", err)
	}
}

// ItemDetailPage handles GET /items/{id}.
func (s *Server) ItemDetailPage(w http.ResponseWriter, r *http.Request) {
	s.renderItemDetail(w, r, "")
}

func (s *Server) renderItemDetail(w http.ResponseWriter, r *http.Request, suggestion string) {
	ctx := r.Context()
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	images, err := store.ListItemImages(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to list item images", "error", err)
	}
	history, err := store.GetItemHistory(ctx, s.DB, id)
	if err != nil {
		slog.Error("failed to get item history", "error", err)
	}
	var path []model.Location
	if item.LocationID != nil {
		if path, err = store.LocationPath(ctx, s.DB, *item.LocationID); err != nil {
			slog.Error("failed to get location path", "error", err)
		}
	}

	data := struct {
		PageData
		Item         *model.Item
		Images       []model.ItemImage
		History      []model.Movement
		LocationPath []model.Location
		Locations    []model.Location
		Categories   []model.Category
		Tags         string
		Suggestion   string
	}{
		PageData:     s.page(r, item.Name),
		Item:         item,
		Images:       images,
		History:      history,
		LocationPath: path,
		Tags:         strings.Join(item.Tags, ", "),
		Suggestion:   suggestion,
	}
	s.loadChoices(r, &data.Locations, &data.Categories)
	s.Templates.Render(w, "item_detail.html", &data)
}

// ItemCreateSubmit handles POST /items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in, err := itemInputFromForm(r)
	if err != nil {
		redirectError(w, r, "/items", err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), s.DB, in)
	if err != nil {
		slog.Warn("failed to create item", "error", err)
		redirectError(w, r, "/items", "could not create item: "+err.Error())
		return
	}

	slog.Info("item created", "item_id", item.ID, "name", item.Name)
	http.Redirect(w, r, fmt.Sprintf("/items/%d", item.ID), http.StatusSeeOther)
}

func itemInputFromForm(r *http.Request) (model.ItemInput, error) {
	in := model.ItemInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		Unit:        strings.TrimSpace(r.FormValue("unit")),
		Currency:    strings.ToUpper(strings.TrimSpace(r.FormValue("currency"))),
		Tags:        splitTags(r.FormValue("tags")),
		ModelURL:    strings.TrimSpace(r.FormValue("model_url")),
	}
	if in.Name == "" {
		return in, errors.New("name required")
	}

	var err error
	if in.CategoryID, err = formID(r, "category_id"); err != nil {
		return in, err
	}
	if in.LocationID, err = formID(r, "location_id"); err != nil {
		return in, err
	}
	if in.EstimatedValue, err = formFloat(r, "estimated_value"); err != nil {
		return in, err
	}
	if v := strings.TrimSpace(r.FormValue("quantity")); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil || q < 0 {
			return in, errors.New("invalid quantity")
		}
		in.Quantity = &q
	}
	return in, nil
}

// ItemUpdateSubmit handles POST /items/{id}. The edit form carries every
// field, so all of them are written.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/items/%d", id)

	in, err := itemInputFromForm(r)
	if err != nil {
		redirectError(w, r, back, err.Error())
		return
	}

	quantity := 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if in.Currency == "" {
		in.Currency = model.DefaultCurrency
	}

	p := model.ItemPatch{
		Name:           &in.Name,
		Description:    &in.Description,
		CategoryID:     model.Optional[int64]{Set: true, Value: in.CategoryID},
		LocationID:     model.Optional[int64]{Set: true, Value: in.LocationID},
		Quantity:       &quantity,
		Unit:           &in.Unit,
		EstimatedValue: model.Optional[float64]{Set: true, Value: in.EstimatedValue},
		Currency:       &in.Currency,
		Tags:           &in.Tags,
		ModelURL:       &in.ModelURL,
	}

	item, err := store.UpdateItem(r.Context(), s.DB, id, p)
	if err != nil {
		slog.Warn("failed to update item", "item_id", id, "error", err)
		redirectError(w, r, back, "could not update item: "+err.Error())
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	slog.Info("item updated", "item_id", id, "name", item.Name)
	redirectOK(w, r, back, "Saved.")
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	if err := s.Catalog.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrItemNotFound) {
			http.Error(w, "item not found", http.StatusNotFound)
			return
		}
		slog.Error("failed to delete item", "item_id", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	slog.Info("item deleted", "item_id", id)
	redirectOK(w, r, "/items", "Item deleted.")
}

// ItemImageSubmit handles POST /items/{id}/images.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/items/%d", id)

	data, filename, err := s.readUpload(w, r)
	if err != nil {
		redirectError(w, r, back, err.Error())
		return
	}

	primary := r.FormValue("is_primary") != ""
	img, err := s.Catalog.AttachImage(r.Context(), id, data, filename, primary)
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		http.Error(w, "item not found", http.StatusNotFound)
		return
	case errors.Is(err, catalog.ErrInvalidImage), errors.Is(err, catalog.ErrDuplicateImage):
		redirectError(w, r, back, err.Error())
		return
	case err != nil:
		slog.Error("failed to save image", "item_id", id, "error", err)
		redirectError(w, r, back, "failed to save image")
		return
	}

	slog.Info("item image uploaded", "item_id", id, "image_id", img.ID)
	redirectOK(w, r, back, "Photo added.")
}

// ItemImagePrimarySubmit handles POST /items/{id}/images/{imageID}/primary.
func (s *Server) ItemImagePrimarySubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	imageID, ok2 := pathID(r, "imageID")
	if !ok || !ok2 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	found, err := store.SetPrimaryImage(r.Context(), s.DB, id, imageID)
	if err != nil {
		slog.Error("failed to set primary image", "image_id", imageID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/items/%d", id), http.StatusSeeOther)
}

// ItemImageDeleteSubmit handles POST /items/{id}/images/{imageID}/delete.
func (s *Server) ItemImageDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	imageID, ok2 := pathID(r, "imageID")
	if !ok || !ok2 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	err := s.Catalog.DeleteImage(r.Context(), id, imageID)
	if errors.Is(err, catalog.ErrImageNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("failed to delete image", "image_id", imageID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	redirectOK(w, r, fmt.Sprintf("/items/%d", id), "Photo deleted.")
}

// ItemMoveSubmit handles POST /items/{id}/move.
func (s *Server) ItemMoveSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	back := fmt.Sprintf("/items/%d", id)

	to, err := formID(r, "location_id")
	if err != nil {
		redirectError(w, r, back, err.Error())
		return
	}

	mv, err := store.MoveItem(r.Context(), s.DB, id, to, strings.TrimSpace(r.FormValue("notes")))
	if errors.Is(err, store.ErrSameLocation) || errors.Is(err, store.ErrInvalidReference) {
		redirectError(w, r, back, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to move item", "item_id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if mv == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	slog.Info("item moved", "item_id", id, "from", mv.FromLocationID, "to", mv.ToLocationID)
	redirectOK(w, r, back, "Moved.")
}

// ItemDescribeSubmit handles POST /items/{id}/describe. The suggestion is
// shown in the edit form; nothing is saved.
func (s *Server) ItemDescribeSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	item, err := store.GetItem(r.Context(), s.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return
	}

	if s.Describer == nil {
		redirectError(w, r, fmt.Sprintf("/items/%d", id), "AI descriptions are disabled")
		return
	}
	suggestion, err := s.Describer.GenerateDescription(r.Context(), item.Name, item.Description)
	if errors.Is(err, llm.ErrDisabled) {
		redirectError(w, r, fmt.Sprintf("/items/%d", id), "AI descriptions are disabled")
		return
	}
	if err != nil {
		slog.Warn("generating description", "item_id", id, "error", err)
		redirectError(w, r, fmt.Sprintf("/items/%d", id), "the model did not answer, try again later")
		return
	}

	s.renderItemDetail(w, r, suggestion)
}

// readUpload reads the "file" field of a multipart form.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(s.MaxUploadSize); err != nil {
		return nil, "", errors.New("file too large or invalid form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errors.New("choose a photo to upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.MaxUploadSize+1))
	if err != nil {
		return nil, "", errors.New("failed to read file")
	}
	if int64(len(data)) > s.MaxUploadSize {
		return nil, "", errors.New("file too large")
	}
	return data, header.Filename, nil
}
