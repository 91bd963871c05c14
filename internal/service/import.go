package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/model"
	"github.com/khanhtranq/inventory-service/internal/repository"
	"github.com/khanhtranq/inventory-service/internal/storage/docstore"
	"github.com/khanhtranq/inventory-service/pkg/validator"
)

// headerOffset converts a 0-based data row index into the reported row
// number: rows are 1-indexed and the header occupies the first line.
const headerOffset = 2

type ImportService interface {
	// ImportCSV upserts products from CSV content keyed by SKU. Rows
	// resolve against a single snapshot of the collection taken before
	// any row is evaluated, and all successful rows are committed in one
	// batched write. A malformed row never aborts its siblings.
	ImportCSV(ctx context.Context, content []byte) (model.ImportResult, error)
}

type importService struct {
	productRepo repository.ProductRepository
	validator   validator.Validator
}

func NewImportService(
	productRepo repository.ProductRepository,
	validator validator.Validator,
) ImportService {
	return &importService{
		productRepo: productRepo,
		validator:   validator,
	}
}

func (s *importService) ImportCSV(ctx context.Context, content []byte) (model.ImportResult, error) {
	header, rows, err := parseCSV(content)
	if err != nil {
		return model.ImportResult{}, err
	}

	// One snapshot before any row is evaluated. Concurrent external
	// writes during processing are not reflected; a stale snapshot
	// version may overwrite such a write. Accepted tradeoff for a
	// single batched commit.
	snapshot, err := s.productRepo.SnapshotBySku(ctx)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("snapshot products by sku: %w", err)
	}

	batch := &docstore.WriteBatch{}
	result := model.ImportResult{
		ProcessedRows: len(rows),
		Errors:        []model.ImportRowResult{},
	}

	for i, record := range rows {
		rowNum := i + headerOffset

		sku := header.field(record, "sku")
		if sku == "" {
			result.Errors = append(result.Errors, model.ImportRowResult{
				RowNumber: rowNum,
				Status:    model.ImportRowError,
				Details:   "SKU is missing.",
			})
			continue
		}

		params, err := s.rowToParams(header, record, sku)
		if err != nil {
			result.Errors = append(result.Errors, model.ImportRowResult{
				RowNumber: rowNum,
				Status:    model.ImportRowError,
				Details:   err.Error(),
				Sku:       sku,
			})
			continue
		}

		product := model.Product{
			Name:      params.Name,
			Sku:       params.Sku,
			Category:  params.Category,
			Quantity:  params.Quantity,
			UnitPrice: params.UnitPrice,
		}

		if ref, ok := snapshot[sku]; ok {
			product.ID = ref.ID
			product.Version = ref.Version + 1
			if err := s.productRepo.StageSet(batch, product); err != nil {
				return model.ImportResult{}, fmt.Errorf("stage update: %w", err)
			}
			result.SuccessfulUpdates++
		} else {
			product.ID = s.productRepo.NewRef()
			product.Version = 1
			if err := s.productRepo.StageSet(batch, product); err != nil {
				return model.ImportResult{}, fmt.Errorf("stage create: %w", err)
			}
			result.SuccessfulCreates++
		}
	}

	if result.SuccessfulCreates > 0 || result.SuccessfulUpdates > 0 {
		if err := s.productRepo.CommitBatch(ctx, batch); err != nil {
			return model.ImportResult{}, fmt.Errorf("commit import batch: %w", err)
		}
	}

	return result, nil
}

func (s *importService) rowToParams(header csvHeader, record []string, sku string) (CreateProductParams, error) {
	quantityRaw := header.field(record, "quantity")
	quantity, err := strconv.Atoi(quantityRaw)
	if err != nil {
		return CreateProductParams{}, fmt.Errorf("quantity must be a whole number, got %q", quantityRaw)
	}

	priceRaw := header.field(record, "unit_price")
	unitPrice, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		return CreateProductParams{}, fmt.Errorf("unit_price must be a number, got %q", priceRaw)
	}

	params := CreateProductParams{
		Name:      header.field(record, "name"),
		Sku:       sku,
		Category:  header.field(record, "category"),
		Quantity:  quantity,
		UnitPrice: unitPrice,
	}

	if err := s.validator.Validate(params); err != nil {
		return CreateProductParams{}, errors.New(rowValidationMessage(err))
	}

	return params, nil
}

// rowValidationMessage flattens validator errors into the human-readable
// detail string carried by the row result.
func rowValidationMessage(err error) string {
	var validationErrs govalidator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	parts := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		parts[i] = fmt.Sprintf("%s: %s", strings.ToLower(fe.Field()), validator.ValidationErrorMessage(fe))
	}
	return strings.Join(parts, "; ")
}

type csvHeader map[string]int

func (h csvHeader) field(record []string, name string) string {
	idx, ok := h[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseCSV(content []byte) (csvHeader, [][]string, error) {
	if !utf8.Valid(content) {
		return nil, nil, apperr.InvalidCSVErr
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, apperr.InvalidCSVErr.WrapParent(err)
	}
	if len(records) < 2 {
		return nil, nil, apperr.EmptyCSVErr
	}

	header := make(csvHeader, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return header, records[1:], nil
}
