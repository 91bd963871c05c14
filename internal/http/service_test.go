package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhtranq/inventory-service/internal/config"
	inventoryhttp "github.com/khanhtranq/inventory-service/internal/http"
	"github.com/khanhtranq/inventory-service/internal/http/middleware"
	appmetric "github.com/khanhtranq/inventory-service/internal/metric"
	"github.com/khanhtranq/inventory-service/internal/model"
	"github.com/khanhtranq/inventory-service/internal/repository"
	"github.com/khanhtranq/inventory-service/internal/service"
	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
	"github.com/khanhtranq/inventory-service/pkg/validator"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	repo := repository.NewProductRepository(docstore.NewMemory())
	svcs := inventoryhttp.Services{
		Product:   service.NewProductService(repo, v),
		Import:    service.NewImportService(repo, v),
		Dashboard: service.NewDashboardService(repo),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := inventoryhttp.New(
		config.HTTP{Port: 0},
		config.Import{Timeout: 5 * time.Second, MaxUploadBytes: 1 << 20},
		logger,
		appmetric.NewSink(),
		svcs,
		nil,
	)

	r := chi.NewRouter()
	svc.RegisterMiddlewares(r)
	svc.RegisterHandlers(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func asOwner() map[string]string {
	return map[string]string{
		middleware.ActorIDHeader:   "user-1",
		middleware.ActorRoleHeader: "owner",
	}
}

func asStaff() map[string]string {
	return map[string]string{
		middleware.ActorIDHeader:   "user-2",
		middleware.ActorRoleHeader: "staff",
	}
}

func createProduct(t *testing.T, r chi.Router, sku string) model.Product {
	t.Helper()

	resp := doJSON(t, r, http.MethodPost, "/products", map[string]any{
		"name": "Rice 5kg", "sku": sku, "category": "staples",
		"quantity": 10, "unit_price": 2.0,
	}, asOwner())
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var product model.Product
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &product))
	return product
}

func TestProductRoutes(t *testing.T) {
	t.Run("Should reject requests without identity", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodGet, "/products", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("Should create a product with 201", func(t *testing.T) {
		r := newTestRouter(t)

		product := createProduct(t, r, "A1")
		assert.Equal(t, 1, product.Version)
		assert.NotEmpty(t, product.ID)
	})

	t.Run("Should answer 409 on duplicate SKU", func(t *testing.T) {
		r := newTestRouter(t)

		createProduct(t, r, "A1")
		resp := doJSON(t, r, http.MethodPost, "/products", map[string]any{
			"name": "Other", "sku": "A1", "category": "staples",
			"quantity": 1, "unit_price": 1.0,
		}, asOwner())

		assert.Equal(t, http.StatusConflict, resp.Code)
	})

	t.Run("Should answer 400 on invalid payload", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodPost, "/products", map[string]any{
			"name": "", "sku": "A1", "category": "staples",
			"quantity": 1, "unit_price": 1.0,
		}, asOwner())

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("Should list and get products", func(t *testing.T) {
		r := newTestRouter(t)

		created := createProduct(t, r, "A1")

		resp := doJSON(t, r, http.MethodGet, "/products", nil, asOwner())
		require.Equal(t, http.StatusOK, resp.Code)

		var products []model.Product
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &products))
		assert.Len(t, products, 1)

		resp = doJSON(t, r, http.MethodGet, "/products/"+created.ID, nil, asOwner())
		assert.Equal(t, http.StatusOK, resp.Code)

		resp = doJSON(t, r, http.MethodGet, "/products/missing", nil, asOwner())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("Should update with 200 and conflict with 409 on stale version", func(t *testing.T) {
		r := newTestRouter(t)

		created := createProduct(t, r, "A1")

		resp := doJSON(t, r, http.MethodPut, "/products/"+created.ID, map[string]any{
			"quantity": 5, "version": 1,
		}, asOwner())
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var updated model.Product
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
		assert.Equal(t, 2, updated.Version)

		resp = doJSON(t, r, http.MethodPut, "/products/"+created.ID, map[string]any{
			"quantity": 5, "version": 1,
		}, asOwner())
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Contains(t, resp.Body.String(), "Expected version 1, but found 2.")
	})

	t.Run("Should answer 403 when staff changes the price", func(t *testing.T) {
		r := newTestRouter(t)

		created := createProduct(t, r, "A1")

		resp := doJSON(t, r, http.MethodPut, "/products/"+created.ID, map[string]any{
			"unit_price": 9.99, "version": 1,
		}, asStaff())

		assert.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("Should delete with 204 and 404 afterwards", func(t *testing.T) {
		r := newTestRouter(t)

		created := createProduct(t, r, "A1")

		resp := doJSON(t, r, http.MethodDelete, "/products/"+created.ID, nil, asOwner())
		assert.Equal(t, http.StatusNoContent, resp.Code)

		resp = doJSON(t, r, http.MethodDelete, "/products/"+created.ID, nil, asOwner())
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func doImport(t *testing.T, r chi.Router, csv string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/import/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for k, v := range asOwner() {
		req.Header.Set(k, v)
	}

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestImportRoute(t *testing.T) {
	t.Run("Should import a CSV file with per-row results", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doImport(t, r, "sku,name,category,quantity,unit_price\nA1,Rice,staples,10,2.0\n,Missing,staples,1,1.0\n")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var result model.ImportResult
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
		assert.Equal(t, 2, result.ProcessedRows)
		assert.Equal(t, 1, result.SuccessfulCreates)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 2, result.Errors[0].RowNumber)
	})

	t.Run("Should answer 400 on an empty file", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doImport(t, r, "")
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestDashboardRoute(t *testing.T) {
	t.Run("Should report KPIs", func(t *testing.T) {
		r := newTestRouter(t)

		createProduct(t, r, "A1")

		resp := doJSON(t, r, http.MethodGet, "/dashboard/kpis", nil, asOwner())
		require.Equal(t, http.StatusOK, resp.Code)

		var report model.KPIReport
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
		assert.Equal(t, 1, report.TotalItems)
		assert.Equal(t, 20.0, report.TotalStockValue)
	})

	t.Run("Should require identity", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodGet, "/dashboard/kpis", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}

func TestMetricsRoute(t *testing.T) {
	t.Run("Should report totals and CRUD counters", func(t *testing.T) {
		r := newTestRouter(t)

		createProduct(t, r, "A1")
		doJSON(t, r, http.MethodGet, "/products", nil, asOwner())

		resp := doJSON(t, r, http.MethodGet, "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)

		var report appmetric.Report
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
		assert.Equal(t, uint64(2), report.TotalRequestsInRun)
		assert.Equal(t, uint64(1), report.CrudOperationCounts[appmetric.OpCreate])
		assert.Equal(t, uint64(1), report.CrudOperationCounts[appmetric.OpRead])
	})

	t.Run("Should serve the prometheus exposition", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodGet, "/metrics/prometheus", nil, nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestHealthRoutes(t *testing.T) {
	t.Run("Should report running status at the root", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodGet, "/", nil, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "API is running")
	})

	t.Run("Should report healthy without a database", func(t *testing.T) {
		r := newTestRouter(t)

		resp := doJSON(t, r, http.MethodGet, "/healthz", nil, nil)
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}
