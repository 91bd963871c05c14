package service

import (
	"context"
	"fmt"

	"github.com/khanhtranq/inventory-service/internal/model"
	"github.com/khanhtranq/inventory-service/internal/repository"
	"github.com/khanhtranq/inventory-service/pkg/validator"
)

type CreateProductParams struct {
	Name      string  `validate:"required,min=1,max=100"`
	Sku       string  `validate:"required,min=1,max=64"`
	Category  string  `validate:"required,min=1,max=50"`
	Quantity  int     `validate:"gte=0"`
	UnitPrice float64 `validate:"gte=0"`
}

// UpdateProductParams is a partial update. Nil fields are left
// untouched. ExpectedVersion is the optimistic-concurrency
// precondition and is always required.
type UpdateProductParams struct {
	Name            *string  `validate:"omitempty,min=1,max=100"`
	Category        *string  `validate:"omitempty,min=1,max=50"`
	Quantity        *int     `validate:"omitempty,gte=0"`
	UnitPrice       *float64 `validate:"omitempty,gte=0"`
	ExpectedVersion int      `validate:"required,gte=1"`
}

type ProductService interface {
	CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error)
	ListAllProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	// UpdateProduct applies a versioned partial update. The actor role
	// feeds the field restriction policy only; identity verification is
	// the upstream gateway's job.
	UpdateProduct(ctx context.Context, id string, params UpdateProductParams, actorRole string) (model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	validator   validator.Validator
}

func NewProductService(
	productRepo repository.ProductRepository,
	validator validator.Validator,
) ProductService {
	return &productService{
		productRepo: productRepo,
		validator:   validator,
	}
}

func (s *productService) CreateProduct(ctx context.Context, params CreateProductParams) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, fmt.Errorf("validate create params: %w", err)
	}

	product, err := s.productRepo.CreateProduct(ctx, repository.CreateProductParams{
		Name:      params.Name,
		Sku:       params.Sku,
		Category:  params.Category,
		Quantity:  params.Quantity,
		UnitPrice: params.UnitPrice,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository create product: %w", err)
	}

	return product, nil
}

func (s *productService) ListAllProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.ListAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("product repository list all products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (model.Product, error) {
	product, err := s.productRepo.GetProduct(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository get product: %w", err)
	}

	return product, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, params UpdateProductParams, actorRole string) (model.Product, error) {
	if err := s.validator.Validate(params); err != nil {
		return model.Product{}, fmt.Errorf("validate update params: %w", err)
	}

	if err := checkFieldPolicy(actorRole, params); err != nil {
		return model.Product{}, err
	}

	product, err := s.productRepo.UpdateProduct(ctx, id, repository.UpdateProductParams{
		Name:            params.Name,
		Category:        params.Category,
		Quantity:        params.Quantity,
		UnitPrice:       params.UnitPrice,
		ExpectedVersion: params.ExpectedVersion,
	})
	if err != nil {
		return model.Product{}, fmt.Errorf("product repository update product: %w", err)
	}

	return product, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.productRepo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("product repository delete product: %w", err)
	}

	return nil
}
