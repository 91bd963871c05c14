package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/model"
	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
)

// ProductsCollection is the document collection holding products.
const ProductsCollection = "products"

type CreateProductParams struct {
	Name      string
	Sku       string
	Category  string
	Quantity  int
	UnitPrice float64
}

// UpdateProductParams is a partial update plus the required
// optimistic-concurrency precondition. Nil fields are left untouched.
type UpdateProductParams struct {
	Name            *string
	Category        *string
	Quantity        *int
	UnitPrice       *float64
	ExpectedVersion int
}

// SkuRef locates an existing product by its natural key: the document
// ID and the version observed at snapshot time.
type SkuRef struct {
	ID      string
	Version int
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	UpdateProduct(ctx context.Context, id string, params UpdateProductParams) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	// ScanProducts streams every product through fn in one store round trip.
	ScanProducts(ctx context.Context, fn func(model.Product) error) error

	// SnapshotBySku reads the whole collection once and indexes it by SKU.
	SnapshotBySku(ctx context.Context) (map[string]SkuRef, error)

	// NewRef allocates a document ID usable before the document is written.
	NewRef() string

	// StageSet stages a full product write in the batch.
	StageSet(b *docstore.WriteBatch, product model.Product) error

	// CommitBatch applies all staged writes in a single round trip.
	CommitBatch(ctx context.Context, b *docstore.WriteBatch) error
}

type productRepository struct {
	store docstore.Store
}

func NewProductRepository(store docstore.Store) ProductRepository {
	return &productRepository{store: store}
}

func (r *productRepository) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	// Advisory uniqueness check. A request racing between this query and
	// the write below can still create a duplicate SKU; see the design
	// notes for why the window is accepted.
	existing, err := r.store.Query(ctx, ProductsCollection, "sku", params.Sku, 1)
	if err != nil {
		return model.Product{}, fmt.Errorf("query products by sku: %w", err)
	}
	if len(existing) > 0 {
		return model.Product{}, apperr.SkuConflictErr(params.Sku)
	}

	product := model.Product{
		ID:        r.store.NewID(),
		Name:      params.Name,
		Sku:       params.Sku,
		Category:  params.Category,
		Quantity:  params.Quantity,
		UnitPrice: params.UnitPrice,
		Version:   1,
	}

	data, err := json.Marshal(product)
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal product: %w", err)
	}

	if err := r.store.Set(ctx, ProductsCollection, product.ID, data); err != nil {
		return model.Product{}, fmt.Errorf("set product: %w", err)
	}

	return product, nil
}

func (r *productRepository) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	if err := r.ScanProducts(ctx, func(product model.Product) error {
		products = append(products, product)
		return nil
	}); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProduct(ctx context.Context, id string) (model.Product, error) {
	doc, err := r.store.Get(ctx, ProductsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}

	return unmarshalProduct(doc)
}

func (r *productRepository) UpdateProduct(ctx context.Context, id string, params UpdateProductParams) (model.Product, error) {
	var updated model.Product

	if err := r.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		product, err := applyVersionedUpdate(ctx, tx, ProductsCollection, id, params)
		if err != nil {
			return err
		}
		updated = product
		return nil
	}); err != nil {
		return model.Product{}, err
	}

	return updated, nil
}

// applyVersionedUpdate performs the read-check-write sequence of a
// versioned update through the given transaction handle: read the
// current document, compare its version against the precondition, merge
// the partial update, bump the version by one and write the result. The
// caller's transaction guarantees no committed write interleaves.
func applyVersionedUpdate(ctx context.Context, tx docstore.Tx, collection, id string, params UpdateProductParams) (model.Product, error) {
	doc, err := tx.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return model.Product{}, apperr.ProductNotFoundErr
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("get product in transaction: %w", err)
	}

	product, err := unmarshalProduct(doc)
	if err != nil {
		return model.Product{}, err
	}

	if product.Version != params.ExpectedVersion {
		return model.Product{}, apperr.VersionConflictErr(params.ExpectedVersion, product.Version)
	}

	if params.Name != nil {
		product.Name = *params.Name
	}
	if params.Category != nil {
		product.Category = *params.Category
	}
	if params.Quantity != nil {
		product.Quantity = *params.Quantity
	}
	if params.UnitPrice != nil {
		product.UnitPrice = *params.UnitPrice
	}
	product.Version++

	data, err := json.Marshal(product)
	if err != nil {
		return model.Product{}, fmt.Errorf("marshal product: %w", err)
	}

	if err := tx.Set(ctx, collection, id, data); err != nil {
		return model.Product{}, fmt.Errorf("set product in transaction: %w", err)
	}

	return product, nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, ProductsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.ProductNotFoundErr
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *productRepository) ScanProducts(ctx context.Context, fn func(model.Product) error) error {
	if err := r.store.Scan(ctx, ProductsCollection, func(doc docstore.Doc) error {
		product, err := unmarshalProduct(doc)
		if err != nil {
			return err
		}
		return fn(product)
	}); err != nil {
		return fmt.Errorf("scan products: %w", err)
	}
	return nil
}

func (r *productRepository) SnapshotBySku(ctx context.Context) (map[string]SkuRef, error) {
	snapshot := make(map[string]SkuRef)
	if err := r.ScanProducts(ctx, func(product model.Product) error {
		snapshot[product.Sku] = SkuRef{ID: product.ID, Version: product.Version}
		return nil
	}); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *productRepository) NewRef() string {
	return r.store.NewID()
}

func (r *productRepository) StageSet(b *docstore.WriteBatch, product model.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	b.Set(ProductsCollection, product.ID, data)
	return nil
}

func (r *productRepository) CommitBatch(ctx context.Context, b *docstore.WriteBatch) error {
	if err := r.store.CommitBatch(ctx, b); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func unmarshalProduct(doc docstore.Doc) (model.Product, error) {
	var product model.Product
	if err := json.Unmarshal(doc.Data, &product); err != nil {
		return model.Product{}, fmt.Errorf("unmarshal product %s: %w", doc.ID, err)
	}
	product.ID = doc.ID
	return product, nil
}
