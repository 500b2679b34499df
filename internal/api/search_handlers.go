package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/example/product-catalog/internal/api/middleware"
	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/search"
)

// Search Handlers

func (h *Handlers) SearchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")

	page, err := h.search.Search(r.Context(), keyword, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.analytics.TrackSearch(r.Context(), keyword, middleware.GetUserID(r.Context()), int(page.TotalItems))
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := q.Get("keyword")
	categoryID := q.Get("category")
	minPrice := parseInt64Param(q.Get("minPrice"), 0)
	maxPrice := parseInt64Param(q.Get("maxPrice"), 0)

	page, err := h.search.AdvancedSearch(r.Context(), keyword, categoryID, minPrice, maxPrice, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.analytics.TrackSearch(r.Context(), keyword, middleware.GetUserID(r.Context()), int(page.TotalItems))
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := extractPathParam(r.URL.Path, "/api/products/category/")

	page, err := h.search.ByCategory(r.Context(), categoryID, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetProductsByBrand(w http.ResponseWriter, r *http.Request) {
	brand := extractPathParam(r.URL.Path, "/api/products/brand/")

	page, err := h.search.ByBrand(r.Context(), brand, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetProductsByPriceRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice := parseInt64Param(q.Get("minPrice"), 0)
	maxPrice := parseInt64Param(q.Get("maxPrice"), 0)

	page, err := h.search.ByPriceRange(r.Context(), minPrice, maxPrice, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetLowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold := defaultLowStockBar
	if v, err := strconv.Atoi(r.URL.Query().Get("threshold")); err == nil && v >= 0 {
		threshold = v
	}

	page, err := h.search.LowStock(r.Context(), threshold, parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// similarProductsResponse is the page envelope plus the reference product.
type similarProductsResponse struct {
	*catalog.Page
	ProductID string `json:"productId"`
}

func (h *Handlers) GetSimilarProducts(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/similar")

	page := parsePageRequest(r)
	if r.URL.Query().Get("size") == "" {
		page.Size = defaultSimilarCount
	}

	result, err := h.search.Similar(r.Context(), id, page)
	if err != nil {
		if err == search.ErrProductNotFound {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, similarProductsResponse{Page: result, ProductID: id})
}
