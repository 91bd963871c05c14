package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/repository"
	"github.com/khanhtranq/inventory-service/internal/service"
	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
	"github.com/khanhtranq/inventory-service/pkg/ptr"
	"github.com/khanhtranq/inventory-service/pkg/validator"
	"github.com/khanhtranq/inventory-service/pkg/zerror"
)

func newProductService(t *testing.T) service.ProductService {
	t.Helper()

	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)

	repo := repository.NewProductRepository(docstore.NewMemory())
	return service.NewProductService(repo, v)
}

func validCreateParams() service.CreateProductParams {
	return service.CreateProductParams{
		Name:      "Rice 5kg",
		Sku:       "A1",
		Category:  "staples",
		Quantity:  10,
		UnitPrice: 2.0,
	}
}

func errCode(t *testing.T, err error) string {
	t.Helper()

	var zErr zerror.ZError
	require.ErrorAs(t, err, &zErr)
	return zErr.Code()
}

func TestProductServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create with version 1", func(t *testing.T) {
		svc := newProductService(t)

		product, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		assert.NotEmpty(t, product.ID)
		assert.Equal(t, 1, product.Version)
		assert.Equal(t, "A1", product.Sku)
	})

	t.Run("Should reject a duplicate SKU with a conflict", func(t *testing.T) {
		svc := newProductService(t)

		_, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		params := validCreateParams()
		params.Name = "Rice 10kg"
		_, err = svc.CreateProduct(ctx, params)

		assert.Equal(t, apperr.SkuConflictCode, errCode(t, err))

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "Product with SKU 'A1' already exists.", zErr.Msg())
	})

	t.Run("Should create distinct SKUs independently", func(t *testing.T) {
		svc := newProductService(t)

		for _, sku := range []string{"A1", "A2", "A3"} {
			params := validCreateParams()
			params.Sku = sku
			product, err := svc.CreateProduct(ctx, params)
			require.NoError(t, err)
			assert.Equal(t, 1, product.Version)
		}
	})

	t.Run("Should reject invalid fields", func(t *testing.T) {
		svc := newProductService(t)

		params := validCreateParams()
		params.Name = ""
		_, err := svc.CreateProduct(ctx, params)

		var validationErrs govalidator.ValidationErrors
		assert.ErrorAs(t, err, &validationErrs)
	})
}

func TestProductServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should advance the version by exactly one", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			Quantity:        ptr.New(5),
			ExpectedVersion: 1,
		}, "owner")
		require.NoError(t, err)

		assert.Equal(t, 2, updated.Version)
		assert.Equal(t, 5, updated.Quantity)
		// Unset fields stay untouched.
		assert.Equal(t, created.Name, updated.Name)
		assert.Equal(t, created.UnitPrice, updated.UnitPrice)
	})

	t.Run("Should reject a stale expected version with both versions reported", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		_, err = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			Quantity:        ptr.New(5),
			ExpectedVersion: 1,
		}, "owner")
		require.NoError(t, err)

		// Retry of the same update with the original precondition.
		_, err = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			Quantity:        ptr.New(5),
			ExpectedVersion: 1,
		}, "owner")

		assert.Equal(t, apperr.VersionConflictCode, errCode(t, err))

		var zErr zerror.ZError
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, "Stale data. Expected version 1, but found 2.", zErr.Msg())
	})

	t.Run("Should forbid a staff actor from changing the unit price", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		_, err = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			UnitPrice:       ptr.New(3.5),
			ExpectedVersion: 1,
		}, "staff")

		assert.Equal(t, apperr.FieldChangeForbiddenCode, errCode(t, err))

		// The denial is checked before the version precondition.
		_, err = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			UnitPrice:       ptr.New(3.5),
			ExpectedVersion: 99,
		}, "staff")
		assert.Equal(t, apperr.FieldChangeForbiddenCode, errCode(t, err))
	})

	t.Run("Should let a staff actor update non-price fields", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		updated, err := svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			Quantity:        ptr.New(7),
			ExpectedVersion: 1,
		}, "staff")
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Quantity)
	})

	t.Run("Should fail not found for an absent product", func(t *testing.T) {
		svc := newProductService(t)

		_, err := svc.UpdateProduct(ctx, "missing", service.UpdateProductParams{
			Quantity:        ptr.New(1),
			ExpectedVersion: 1,
		}, "owner")

		assert.Equal(t, apperr.ProductNotFoundCode, errCode(t, err))
	})

	t.Run("Should require the expected version", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		_, err = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
			Quantity: ptr.New(1),
		}, "owner")

		var validationErrs govalidator.ValidationErrors
		assert.ErrorAs(t, err, &validationErrs)
	})

	t.Run("Should serialize concurrent updates with the same precondition", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Go(func() {
				_, errs[i] = svc.UpdateProduct(ctx, created.ID, service.UpdateProductParams{
					Quantity:        ptr.New(i),
					ExpectedVersion: 1,
				}, "owner")
			})
		}
		wg.Wait()

		conflicts := 0
		for _, err := range errs {
			if err != nil {
				var zErr zerror.ZError
				require.ErrorAs(t, err, &zErr)
				assert.Equal(t, apperr.VersionConflictCode, zErr.Code())
				conflicts++
			}
		}
		assert.Equal(t, 1, conflicts, "exactly one update must lose")

		final, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, final.Version)
	})
}

func TestProductServiceGetListDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Should get a created product by id", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		got, err := svc.GetProduct(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("Should fail not found for an absent id", func(t *testing.T) {
		svc := newProductService(t)

		_, err := svc.GetProduct(ctx, "missing")
		assert.Equal(t, apperr.ProductNotFoundCode, errCode(t, err))
	})

	t.Run("Should list all products", func(t *testing.T) {
		svc := newProductService(t)

		for _, sku := range []string{"A1", "B2"} {
			params := validCreateParams()
			params.Sku = sku
			_, err := svc.CreateProduct(ctx, params)
			require.NoError(t, err)
		}

		products, err := svc.ListAllProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("Should delete and then report not found", func(t *testing.T) {
		svc := newProductService(t)

		created, err := svc.CreateProduct(ctx, validCreateParams())
		require.NoError(t, err)

		require.NoError(t, svc.DeleteProduct(ctx, created.ID))

		_, err = svc.GetProduct(ctx, created.ID)
		assert.Equal(t, apperr.ProductNotFoundCode, errCode(t, err))

		err = svc.DeleteProduct(ctx, created.ID)
		assert.Equal(t, apperr.ProductNotFoundCode, errCode(t, err))
	})
}

func TestErrorTaxonomyMapping(t *testing.T) {
	t.Run("Should keep taxonomy kinds distinguishable", func(t *testing.T) {
		assert.Equal(t, zerror.StatusConflict, apperr.SkuConflictErr("A1").Status())
		assert.Equal(t, zerror.StatusConflict, apperr.VersionConflictErr(1, 2).Status())
		assert.Equal(t, zerror.StatusForbidden, apperr.FieldChangeForbiddenErr("staff", "unit price").Status())
		assert.Equal(t, zerror.StatusNotFound, apperr.ProductNotFoundErr.Status())
		assert.Equal(t, zerror.StatusBadRequest, apperr.InvalidCSVErr.Status())
	})

	t.Run("Should unwrap through fmt wrapping", func(t *testing.T) {
		wrapped := errors.Join(apperr.ProductNotFoundErr)

		var zErr zerror.ZError
		assert.ErrorAs(t, wrapped, &zErr)
	})
}
