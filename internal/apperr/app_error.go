package apperr

import (
	"fmt"

	"github.com/khanhtranq/inventory-service/pkg/zerror"
)

const (
	ValidationErrorCode       = "VALIDATION_FAILED"
	ProductNotFoundCode       = "PRODUCT_NOT_FOUND"
	SkuConflictCode           = "SKU_CONFLICT"
	VersionConflictCode       = "VERSION_CONFLICT"
	PriceChangeForbiddenCode  = "PRICE_CHANGE_FORBIDDEN"
	FieldChangeForbiddenCode  = "FIELD_CHANGE_FORBIDDEN"
	InvalidCSVCode            = "INVALID_CSV"
	EmptyCSVCode              = "EMPTY_CSV"
	UnauthenticatedCode       = "UNAUTHENTICATED"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")

	ProductNotFoundErr = zerror.NewNotFound(ProductNotFoundCode, "Product not found")

	InvalidCSVErr = zerror.NewBadRequest(InvalidCSVCode, "Invalid CSV file format. Must be UTF-8 encoded.")

	EmptyCSVErr = zerror.NewBadRequest(EmptyCSVCode, "CSV file is empty.")

	UnauthenticatedErr = zerror.NewUnauthorized(UnauthenticatedCode, "missing or invalid identity")
)

// SkuConflictErr reports a duplicate natural key at create time.
func SkuConflictErr(sku string) zerror.ZError {
	return zerror.NewConflict(SkuConflictCode,
		fmt.Sprintf("Product with SKU '%s' already exists.", sku))
}

// VersionConflictErr reports a stale write detected by the versioned
// update, carrying both the expected and the actual version.
func VersionConflictErr(expected, actual int) zerror.ZError {
	return zerror.NewConflict(VersionConflictCode,
		fmt.Sprintf("Stale data. Expected version %d, but found %d.", expected, actual))
}

// FieldChangeForbiddenErr reports a role-based field restriction denial.
func FieldChangeForbiddenErr(role, field string) zerror.ZError {
	return zerror.NewForbidden(FieldChangeForbiddenCode,
		fmt.Sprintf("Role '%s' cannot change the %s.", role, field))
}
