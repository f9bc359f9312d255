package web

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/locography/internal/catalog"
	"github.com/erazemk/locography/internal/db"
	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/storage"
	"github.com/erazemk/locography/internal/store"
)

type stubDescriber string

func (s stubDescriber) GenerateDescription(context.Context, string, string) (string, error) {
	return string(s), nil
}

func setupTestWeb(t *testing.T) (http.Handler, *Server) {
	t.Helper()
	database := db.NewTestDB(t)
	st, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	s := &Server{
		DB:              database,
		Catalog:         catalog.New(database, st, nil),
		Describer:       stubDescriber("A shiny brass lamp."),
		Version:         "test",
		SearchThreshold: 0.5,
	}
	h, err := NewRouter(s)
	require.NoError(t, err)
	return h, s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postFile(t *testing.T, h http.Handler, path string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func greenPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{12, 180, 44, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTemplatesLoad(t *testing.T) {
	_, err := LoadTemplates()
	require.NoError(t, err)
}

func TestDashboardAndStatic(t *testing.T) {
	h, _ := setupTestWeb(t)

	rec := get(t, h, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")
	assert.Contains(t, rec.Body.String(), "Locography test")

	rec = get(t, h, "/static/style.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestItemLifecycle(t *testing.T) {
	h, s := setupTestWeb(t)

	rec := postForm(t, h, "/items", url.Values{"name": {"Desk lamp"}, "quantity": {"2"}, "tags": {"light, brass"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/items/1", rec.Header().Get("Location"))

	rec = postForm(t, h, "/items", url.Values{"name": {"  "}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = get(t, h, "/items/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Desk lamp")
	assert.Contains(t, rec.Body.String(), "light, brass")

	rec = get(t, h, "/items")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Desk lamp")

	rec = postForm(t, h, "/items/1", url.Values{"name": {"Desk lamp"}, "quantity": {"3"}, "currency": {"eur"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	item, err := store.GetItem(context.Background(), s.DB, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "EUR", item.Currency)
	assert.Empty(t, item.Tags)

	rec = postForm(t, h, "/items/1/describe", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A shiny brass lamp.")

	rec = postForm(t, h, "/items/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/items/1").Code)
}

func TestItemPhotosAndSearch(t *testing.T) {
	h, s := setupTestWeb(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, s.DB, model.ItemInput{Name: "Green cup"})
	require.NoError(t, err)

	rec := postFile(t, h, "/items/1/images", greenPNG(t))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "ok=")

	images, err := store.ListItemImages(ctx, s.DB, item.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)

	rec = get(t, h, "/images/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	stored := rec.Body.Bytes()

	rec = postFile(t, h, "/items/1/images", []byte("not an image"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = postFile(t, h, "/search", stored)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Green cup")
	assert.Contains(t, rec.Body.String(), "100% match")

	rec = get(t, h, "/search?q=cup")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Green cup")

	rec = get(t, h, "/search?q=plate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No matches.")
}

func TestLocationsPages(t *testing.T) {
	h, s := setupTestWeb(t)
	ctx := context.Background()

	rec := postForm(t, h, "/locations", url.Values{"name": {"Kitchen"}, "location_type": {"room"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	rec = postForm(t, h, "/locations", url.Values{"name": {"Drawer"}, "parent_id": {"1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	item, err := store.CreateItem(ctx, s.DB, model.ItemInput{Name: "Spoon"})
	require.NoError(t, err)

	rec = postForm(t, h, "/items/1/move", url.Values{"location_id": {"2"}, "notes": {"put away"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	history, err := store.GetItemHistory(ctx, s.DB, item.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	rec = get(t, h, "/locations/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Drawer")
	assert.Contains(t, body, "Spoon")

	// Kitchen can't move into its own drawer.
	rec = postForm(t, h, "/locations/1", url.Values{"name": {"Kitchen"}, "parent_id": {"2"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = postForm(t, h, "/locations/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "error=")

	rec = get(t, h, "/locations?location_type=room")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Kitchen")
}

func TestCategoriesPages(t *testing.T) {
	h, s := setupTestWeb(t)

	rec := postForm(t, h, "/categories", url.Values{"name": {"Kitchenware"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(t, h, "/categories/1", url.Values{"name": {"Cutlery"}, "description": {"forks and spoons"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	c, err := store.GetCategory(context.Background(), s.DB, 1)
	require.NoError(t, err)
	assert.Equal(t, "Cutlery", c.Name)

	rec = get(t, h, "/categories")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cutlery")

	rec = postForm(t, h, "/categories/1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Contains(t, rec.Header().Get("Location"), "ok=")
}
