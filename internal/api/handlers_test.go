package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/product-catalog/internal/auth"
	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/infrastructure/store/mocks"
	"github.com/example/product-catalog/internal/inventory"
	"github.com/example/product-catalog/internal/search"
)

type testEnv struct {
	router     http.Handler
	handlers   *Handlers
	categories *catalog.CategoryService

	productStore *mocks.MockProductStore
	indexStore   *mocks.MockIndexStore
}

func newTestEnv() *testEnv {
	productStore := mocks.NewMockProductStore()
	indexStore := mocks.NewMockIndexStore()
	categoryStore := mocks.NewMockCategoryStore()

	publisher := events.NewPublisher(map[string]events.Producer{})
	propagator := search.NewPropagator(indexStore)
	categories := catalog.NewCategoryService(categoryStore)

	handlers := NewHandlers(
		catalog.NewService(productStore, propagator, publisher, nil),
		categories,
		inventory.NewLedger(productStore, propagator, publisher, nil),
		search.NewEngine(indexStore, productStore),
		events.NewAnalytics(publisher),
	)

	return &testEnv{
		router:       NewRouter(handlers, nil),
		handlers:     handlers,
		categories:   categories,
		productStore: productStore,
		indexStore:   indexStore,
	}
}

func (e *testEnv) seed(id string, stock int) {
	p := &catalog.Product{
		ID:            id,
		Name:          "Test Product",
		Brand:         "Acme",
		Price:         1000,
		StockQuantity: stock,
		Active:        true,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	e.productStore.SetData(p)
	_ = e.indexStore.Put(context.Background(), p)
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

// ============================================
// Product Endpoint Tests
// ============================================

func TestAPI_CreateAndGetProduct(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/products", `{"name":"Mouse","brand":"Acme","price":2999,"stock_quantity":5}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var created catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = env.do(t, http.MethodGet, "/api/products/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	var got catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Mouse", got.Name)
}

func TestAPI_CreateProduct_Invalid(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPost, "/api/products", `{"price":100}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_GetProduct_NotFound(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodGet, "/api/products/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_ListProducts_PaginationEnvelope(t *testing.T) {
	env := newTestEnv()
	for _, id := range []string{"p1", "p2", "p3"} {
		env.seed(id, 5)
	}

	w := env.do(t, http.MethodGet, "/api/products?page=0&size=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Products    []json.RawMessage `json:"products"`
		CurrentPage int               `json:"currentPage"`
		TotalItems  int64             `json:"totalItems"`
		TotalPages  int               `json:"totalPages"`
		HasNext     bool              `json:"hasNext"`
		HasPrevious bool              `json:"hasPrevious"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Products, 2)
	assert.Equal(t, int64(3), page.TotalItems)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func TestAPI_BatchLookup(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 5)

	w := env.do(t, http.MethodPost, "/api/products/batch", `{"ids":["p1","missing"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var products []catalog.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 1)
}

func TestAPI_Brands(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 5)

	w := env.do(t, http.MethodGet, "/api/products/brands", "")
	require.Equal(t, http.StatusOK, w.Code)

	var brands []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &brands))
	assert.Equal(t, []string{"Acme"}, brands)
}

// ============================================
// Stock Endpoint Tests
// ============================================

func TestAPI_ReserveStock_Success(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 10)

	w := env.do(t, http.MethodPut, "/api/products/p1/stock", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	p, _ := env.productStore.GetData("p1")
	assert.Equal(t, 7, p.StockQuantity)
}

func TestAPI_ReserveStock_Insufficient(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 2)

	w := env.do(t, http.MethodPut, "/api/products/p1/stock", `{"quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Insufficient stock", resp.Message)

	p, _ := env.productStore.GetData("p1")
	assert.Equal(t, 2, p.StockQuantity)
}

func TestAPI_ReserveStock_UnknownProduct(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPut, "/api/products/missing/stock", `{"quantity":1}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_RestoreStock(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 2)

	w := env.do(t, http.MethodPut, "/api/products/p1/stock/restore", `{"quantity":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	p, _ := env.productStore.GetData("p1")
	assert.Equal(t, 5, p.StockQuantity)
}

// ============================================
// Search Endpoint Tests
// ============================================

func TestAPI_Search(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 5)

	w := env.do(t, http.MethodGet, "/api/products/search?keyword=test", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page catalog.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Products, 1)
}

func TestAPI_Search_EmptyKeywordListsAll(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 5)

	w := env.do(t, http.MethodGet, "/api/products/search", "")
	require.Equal(t, http.StatusOK, w.Code)

	var page catalog.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Products, 1)
}

func TestAPI_SimilarProducts(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 5)
	env.seed("p2", 5)

	w := env.do(t, http.MethodGet, "/api/products/p1/similar", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products  []catalog.Product `json:"products"`
		ProductID string            `json:"productId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp.ProductID)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "p2", resp.Products[0].ID)
}

// ============================================
// Category Endpoint Tests
// ============================================

func TestAPI_CategoryHierarchy(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.categories.SeedDefaults(context.Background()))

	w := env.do(t, http.MethodGet, "/api/categories/hierarchy", "")
	require.Equal(t, http.StatusOK, w.Code)

	var tree struct {
		Categories    []catalog.Category            `json:"categories"`
		Subcategories map[string][]catalog.Category `json:"subcategories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tree))
	require.Len(t, tree.Categories, 5)
	assert.Equal(t, "Electronics", tree.Categories[0].Name)
	assert.Len(t, tree.Subcategories[tree.Categories[0].ID], 4)
}

func TestAPI_Subcategories(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.categories.SeedDefaults(context.Background()))

	var roots []catalog.Category
	w := env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &roots))

	var electronics string
	for _, c := range roots {
		if c.Name == "Electronics" {
			electronics = c.ID
		}
	}
	require.NotEmpty(t, electronics)

	w = env.do(t, http.MethodGet, "/api/categories/"+electronics+"/subcategories", "")
	require.Equal(t, http.StatusOK, w.Code)

	var children []catalog.Category
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &children))
	require.Len(t, children, 4)
	assert.Equal(t, "Smartphones", children[0].Name)
}

// ============================================
// Auth Gating Tests
// ============================================

func TestAPI_StockEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv()
	env.seed("p1", 10)

	jwtService := auth.NewJWTService("0123456789abcdef0123456789abcdef", time.Hour)
	router := NewRouter(env.handlers, jwtService)

	// No token.
	r := httptest.NewRequest(http.MethodPut, "/api/products/p1/stock", strings.NewReader(`{"quantity":1}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Non-admin token.
	token, _, err := jwtService.GenerateAccessToken("user-1", "u@example.com", "customer")
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodPut, "/api/products/p1/stock/restore", strings.NewReader(`{"quantity":1}`))
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Admin token.
	token, _, err = jwtService.GenerateAccessToken("admin-1", "a@example.com", "admin")
	require.NoError(t, err)
	r = httptest.NewRequest(http.MethodPut, "/api/products/p1/stock", strings.NewReader(`{"quantity":1}`))
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)

	p, _ := env.productStore.GetData("p1")
	assert.Equal(t, 9, p.StockQuantity)
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	env := newTestEnv()

	w := env.do(t, http.MethodPatch, "/api/products", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
