package importer

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Field is a canonical request column the importer understands.
type Field string

const (
	FieldCustomerName  Field = "customer_name"
	FieldCustomerEmail Field = "customer_email"
	FieldPark          Field = "park"
	FieldItemName      Field = "item_name"
	FieldCategory      Field = "category"
	FieldQuantity      Field = "quantity"
	FieldBudgetPrice   Field = "budget_price"
	FieldNotes         Field = "notes"
)

// fieldAliases maps each canonical field to its accepted header spellings in
// priority order. Spreadsheets exported by customers use wildly inconsistent
// headers; the first alias found in the header row wins, so more specific
// spellings must come before looser ones.
var fieldAliases = map[Field][]string{
	FieldCustomerName:  {"customer name", "customer", "guest name", "name", "full name"},
	FieldCustomerEmail: {"customer email", "email address", "email", "e-mail"},
	FieldPark:          {"park", "theme park", "location"},
	FieldItemName:      {"item name", "item", "product", "merchandise", "description"},
	FieldCategory:      {"category", "item category", "type"},
	FieldQuantity:      {"quantity", "qty", "count", "amount"},
	FieldBudgetPrice:   {"budget price", "budget", "max price", "price limit", "price"},
	FieldNotes:         {"notes", "note", "comments", "special instructions"},
}

// requiredFields must resolve to a column or the whole file is rejected.
var requiredFields = []Field{FieldCustomerName, FieldCustomerEmail, FieldItemName}

// UnmappedFieldError reports a required field with no matching header.
type UnmappedFieldError struct {
	Field Field
}

func (e *UnmappedFieldError) Error() string {
	return fmt.Sprintf("no column maps to required field %q", string(e.Field))
}

// ColumnMap resolves canonical fields to column indexes in the header row.
type ColumnMap map[Field]int

// Value returns the trimmed cell for a field, or "" when the field was not
// mapped or the row is short.
func (m ColumnMap) Value(row []string, field Field) string {
	idx, ok := m[field]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MapHeader resolves a CSV header row against the alias table. Every required
// field that fails to resolve contributes an UnmappedFieldError; the
// aggregate is returned so callers can report all missing columns at once.
func MapHeader(header []string) (ColumnMap, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	columns := ColumnMap{}
	for field, aliases := range fieldAliases {
		for _, alias := range aliases {
			if i, ok := index[normalizeHeader(alias)]; ok {
				columns[field] = i
				break
			}
		}
	}

	var result *multierror.Error
	for _, field := range requiredFields {
		if _, ok := columns[field]; !ok {
			result = multierror.Append(result, &UnmappedFieldError{Field: field})
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return columns, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}
