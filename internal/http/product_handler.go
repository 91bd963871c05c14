package http

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/config"
	"github.com/khanhtranq/inventory-service/internal/http/middleware"
	"github.com/khanhtranq/inventory-service/internal/service"
)

type productHandler struct {
	responder

	productSvc service.ProductService
	importSvc  service.ImportService
	importCfg  config.Import
}

func newProductHandler(
	rs responder,
	productSvc service.ProductService,
	importSvc service.ImportService,
	importCfg config.Import,
) *productHandler {
	return &productHandler{
		responder:  rs,
		productSvc: productSvc,
		importSvc:  importSvc,
		importCfg:  importCfg,
	}
}

func (h *productHandler) register(r chi.Router) {
	r.Post("/", h.createProduct)
	r.Get("/", h.listProducts)
	r.Post("/import/csv", h.importCSV)
	r.Get("/{productID}", h.getProduct)
	r.Put("/{productID}", h.updateProduct)
	r.Delete("/{productID}", h.deleteProduct)
}

type createProductRequest struct {
	Name      string  `json:"name"`
	Sku       string  `json:"sku"`
	Category  string  `json:"category"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

func (h *productHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	product, err := h.productSvc.CreateProduct(r.Context(), service.CreateProductParams{
		Name:      req.Name,
		Sku:       req.Sku,
		Category:  req.Category,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service create product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusCreated, product)
}

func (h *productHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productSvc.ListAllProducts(r.Context())
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service list all products: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, products)
}

func (h *productHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.productSvc.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service get product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, product)
}

type updateProductRequest struct {
	Name      *string  `json:"name"`
	Category  *string  `json:"category"`
	Quantity  *int     `json:"quantity"`
	UnitPrice *float64 `json:"unit_price"`

	// Version is the expected current version of the product, required
	// for stale-write detection.
	Version int `json:"version"`
}

func (h *productHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())

	product, err := h.productSvc.UpdateProduct(r.Context(), chi.URLParam(r, "productID"),
		service.UpdateProductParams{
			Name:            req.Name,
			Category:        req.Category,
			Quantity:        req.Quantity,
			UnitPrice:       req.UnitPrice,
			ExpectedVersion: req.Version,
		}, actor.Role)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("product service update product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, product)
}

func (h *productHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.productSvc.DeleteProduct(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeError(w, r, fmt.Errorf("product service delete product: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusNoContent, nil)
}

func (h *productHandler) importCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.importCfg.Timeout)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, h.importCfg.MaxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, apperr.InvalidCSVErr.WrapParent(fmt.Errorf("read multipart file: %w", err)))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, apperr.InvalidCSVErr.WrapParent(fmt.Errorf("read file content: %w", err)))
		return
	}

	result, err := h.importSvc.ImportCSV(ctx, content)
	if err != nil {
		h.writeError(w, r, fmt.Errorf("import service import csv: %w", err))
		return
	}

	h.writeJSON(w, r, http.StatusOK, result)
}
