package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/example/product-catalog/internal/api/middleware"
	"github.com/example/product-catalog/internal/auth"
)

// NewRouter wires the HTTP surface. When jwtService is nil the write
// endpoints are left open, which is only meant for local development.
func NewRouter(handlers *Handlers, jwtService *auth.JWTService) http.Handler {
	mux := http.NewServeMux()

	admin := func(h http.HandlerFunc) http.Handler {
		if jwtService == nil {
			return h
		}
		return middleware.AuthMiddleware(jwtService)(middleware.RequireRole("admin")(h))
	}

	// Products
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetProducts(w, r)
		case http.MethodPost:
			admin(handlers.CreateProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/products/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/products/")
		switch {
		case rest == "search" && r.Method == http.MethodGet:
			handlers.SearchProducts(w, r)
		case rest == "advanced-search" && r.Method == http.MethodGet:
			handlers.AdvancedSearch(w, r)
		case rest == "low-stock" && r.Method == http.MethodGet:
			admin(handlers.GetLowStockProducts).ServeHTTP(w, r)
		case rest == "brands" && r.Method == http.MethodGet:
			handlers.GetBrands(w, r)
		case rest == "price-range" && r.Method == http.MethodGet:
			handlers.GetProductsByPriceRange(w, r)
		case rest == "batch" && r.Method == http.MethodPost:
			handlers.GetProductsBatch(w, r)
		case strings.HasPrefix(rest, "category/") && r.Method == http.MethodGet:
			handlers.GetProductsByCategory(w, r)
		case strings.HasPrefix(rest, "brand/") && r.Method == http.MethodGet:
			handlers.GetProductsByBrand(w, r)
		case strings.HasSuffix(rest, "/similar") && r.Method == http.MethodGet:
			handlers.GetSimilarProducts(w, r)
		case strings.HasSuffix(rest, "/stock/restore") && r.Method == http.MethodPut:
			admin(handlers.RestoreStock).ServeHTTP(w, r)
		case strings.HasSuffix(rest, "/stock") && r.Method == http.MethodPut:
			admin(handlers.ReserveStock).ServeHTTP(w, r)
		case r.Method == http.MethodGet:
			handlers.GetProduct(w, r)
		case r.Method == http.MethodPut:
			admin(handlers.UpdateProduct).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			admin(handlers.DeleteProduct).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	// Categories
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handlers.GetCategories(w, r)
		case http.MethodPost:
			admin(handlers.CreateCategory).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/categories/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/categories/")
		switch {
		case rest == "hierarchy" && r.Method == http.MethodGet:
			handlers.GetCategoryHierarchy(w, r)
		case strings.HasSuffix(rest, "/subcategories") && r.Method == http.MethodGet:
			handlers.GetSubcategories(w, r)
		case r.Method == http.MethodGet:
			handlers.GetCategory(w, r)
		case r.Method == http.MethodPut:
			admin(handlers.UpdateCategory).ServeHTTP(w, r)
		case r.Method == http.MethodDelete:
			admin(handlers.DeleteCategory).ServeHTTP(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	var handler http.Handler = mux
	if jwtService != nil {
		// Attach user identity when present so analytics events
		// carry a user ID without requiring login for reads.
		handler = middleware.OptionalAuthMiddleware(jwtService)(handler)
	}

	return withLogging(handler)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[API] %s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
