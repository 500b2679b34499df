package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/product-catalog/internal/api/middleware"
	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/inventory"
	"github.com/example/product-catalog/internal/search"
)

const (
	defaultPageSize     = 12
	defaultSortBy       = "createdAt"
	defaultSortDir      = "desc"
	defaultLowStockBar  = 10
	defaultSimilarCount = 6
)

type Handlers struct {
	products   *catalog.Service
	categories *catalog.CategoryService
	ledger     *inventory.Ledger
	search     *search.Engine
	analytics  *events.Analytics
}

func NewHandlers(products *catalog.Service, categories *catalog.CategoryService, ledger *inventory.Ledger, searchEngine *search.Engine, analytics *events.Analytics) *Handlers {
	return &Handlers{
		products:   products,
		categories: categories,
		ledger:     ledger,
		search:     searchEngine,
		analytics:  analytics,
	}
}

// Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := h.products.Create(r.Context(), &p)
	if err != nil {
		if errors.Is(err, catalog.ErrInvalidProduct) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	page, err := h.products.ListActive(r.Context(), parsePageRequest(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	product, err := h.products.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.analytics.TrackProductView(r.Context(), id, middleware.GetUserID(r.Context()))
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.products.Update(r.Context(), id, &p)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/api/products/")

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			http.Error(w, "Product not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *Handlers) GetProductsBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	products, err := h.products.GetByIDs(r.Context(), req.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if products == nil {
		products = []*catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.products.Brands(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if brands == nil {
		brands = []string{}
	}
	respondJSON(w, http.StatusOK, brands)
}

// Stock Handlers

type stockRequest struct {
	Quantity int `json:"quantity"`
}

type stockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handlers) ReserveStock(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/stock")

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.ledger.Reserve(r.Context(), id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, inventory.ErrInvalidQuantity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	if !ok {
		respondJSON(w, http.StatusOK, stockResponse{Success: false, Message: "Insufficient stock"})
		return
	}
	respondJSON(w, http.StatusOK, stockResponse{Success: true, Message: "Stock updated successfully"})
}

func (h *Handlers) RestoreStock(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/api/products/"), "/stock/restore")

	var req stockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.Restore(r.Context(), id, req.Quantity); err != nil {
		switch {
		case errors.Is(err, inventory.ErrProductNotFound):
			http.Error(w, "Product not found", http.StatusNotFound)
		case errors.Is(err, inventory.ErrInvalidQuantity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, http.StatusOK, stockResponse{Success: true, Message: "Stock restored successfully"})
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func parsePageRequest(r *http.Request) catalog.PageRequest {
	q := r.URL.Query()

	page := 0
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v >= 0 {
		page = v
	}
	size := defaultPageSize
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 && v <= 100 {
		size = v
	}
	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = defaultSortBy
	}
	sortDir := q.Get("sortDir")
	if sortDir != "asc" {
		sortDir = defaultSortDir
	}

	return catalog.PageRequest{Page: page, Size: size, SortBy: sortBy, SortDir: sortDir}
}

func parseInt64Param(q string, fallback int64) int64 {
	if q == "" {
		return fallback
	}
	v, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
