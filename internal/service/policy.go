package service

import "github.com/khanhtranq/inventory-service/internal/apperr"

// restrictedField is an update field a role may be denied from changing.
type restrictedField struct {
	display string
	isSet   func(params UpdateProductParams) bool
}

// fieldPolicy maps role to the update fields that role is denied.
// Extending a restriction to a new role or field is a table entry,
// not a new conditional.
var fieldPolicy = map[string][]restrictedField{
	"staff": {
		{
			display: "unit price",
			isSet:   func(p UpdateProductParams) bool { return p.UnitPrice != nil },
		},
	},
}

func checkFieldPolicy(role string, params UpdateProductParams) error {
	for _, field := range fieldPolicy[role] {
		if field.isSet(params) {
			return apperr.FieldChangeForbiddenErr(role, field.display)
		}
	}
	return nil
}
