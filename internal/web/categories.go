package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/locography/internal/model"
	"github.com/erazemk/locography/internal/store"
)

// CategoriesPage handles GET /categories.
func (s *Server) CategoriesPage(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), s.DB, nil)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
	}

	s.Templates.Render(w, "categories.html", &struct {
		PageData
		Categories []model.Category
	}{
		PageData:   s.page(r, "Categories"),
		Categories: categories,
	})
}

// CategoryCreateSubmit handles POST /categories.
func (s *Server) CategoryCreateSubmit(w http.ResponseWriter, r *http.Request) {
	in := model.CategoryInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if in.Name == "" {
		redirectError(w, r, "/categories", "name required")
		return
	}

	var err error
	if in.ParentID, err = formID(r, "parent_id"); err != nil {
		redirectError(w, r, "/categories", err.Error())
		return
	}

	category, err := store.CreateCategory(r.Context(), s.DB, in)
	if err != nil {
		slog.Warn("failed to create category", "error", err)
		redirectError(w, r, "/categories", "could not create category: "+err.Error())
		return
	}

	slog.Info("category created", "category_id", category.ID, "name", category.Name)
	redirectOK(w, r, "/categories", "Category created.")
}

// CategoryUpdateSubmit handles POST /categories/{id}.
func (s *Server) CategoryUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		redirectError(w, r, "/categories", "name required")
		return
	}
	parentID, err := formID(r, "parent_id")
	if err != nil {
		redirectError(w, r, "/categories", err.Error())
		return
	}
	description := strings.TrimSpace(r.FormValue("description"))

	category, err := store.UpdateCategory(r.Context(), s.DB, id, model.CategoryPatch{
		Name:        &name,
		Description: &description,
		ParentID:    model.Optional[int64]{Set: true, Value: parentID},
	})
	if errors.Is(err, store.ErrCycle) || errors.Is(err, store.ErrInvalidReference) {
		redirectError(w, r, "/categories", err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to update category", "category_id", id, "error", err)
		http.Error(w, "failed to update", http.StatusInternalServerError)
		return
	}
	if category == nil {
		http.Error(w, "category not found", http.StatusNotFound)
		return
	}

	slog.Info("category updated", "category_id", id, "name", name)
	redirectOK(w, r, "/categories", "Saved.")
}

// CategoryDeleteSubmit handles POST /categories/{id}/delete.
func (s *Server) CategoryDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	err := store.DeleteCategory(r.Context(), s.DB, id)
	if errors.Is(err, store.ErrHasChildren) {
		redirectError(w, r, "/categories", "delete the subcategories first")
		return
	}
	if err != nil {
		slog.Error("failed to delete category", "category_id", id, "error", err)
		http.Error(w, "failed to delete", http.StatusInternalServerError)
		return
	}

	slog.Info("category deleted", "category_id", id)
	redirectOK(w, r, "/categories", "Category deleted.")
}
