package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/product-catalog/internal/catalog"
)

// Category Handlers

func (h *Handlers) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if categories == nil {
		categories = []*catalog.Category{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *Handlers) GetCategoryHierarchy(w http.ResponseWriter, r *http.Request) {
	tree, err := h.categories.Hierarchy(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, tree)
}

func (h *Handlers) GetSubcategories(w http.ResponseWriter, r *http.Request) {
	parentID := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/categories/"), "/subcategories")

	children, err := h.categories.Subcategories(r.Context(), parentID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

func (h *Handlers) GetCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/categories/")

	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.categories.Create(r.Context(), &c)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/categories/")

	var c catalog.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.categories.Update(r.Context(), id, &c)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/categories/")

	if err := h.categories.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			http.Error(w, "Category not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Category deleted"})
}
