package importer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	requestdomain "github.com/shawnuphold/wishpark/internal/request/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RowError reports a single data row that could not be imported. Line numbers
// are 1-based and count the header row.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Result summarizes one import batch. Valid rows are imported even when other
// rows fail; RowErrors carries everything that was skipped.
type Result struct {
	BatchID    string   `json:"batch_id"`
	RowsTotal  int      `json:"rows_total"`
	RowsOK     int      `json:"rows_ok"`
	RequestIDs []string `json:"request_ids"`
	RowErrors  []string `json:"row_errors,omitempty"`
}

type ImporterParam struct {
	fx.In

	Log      *zap.Logger
	Requests requestdomain.Service
}

// Importer turns customer spreadsheets into requests. Consecutive rows for
// the same customer email collapse into a single request with multiple items.
type Importer struct {
	log      *zap.Logger
	requests requestdomain.Service
}

func NewImporter(p ImporterParam) *Importer {
	return &Importer{
		log:      p.Log.Named("importer"),
		requests: p.Requests,
	}
}

var Module = fx.Module("importer",
	fx.Provide(NewImporter),
)

// Import reads a CSV stream and creates one request per customer group. A
// header mapping failure aborts the whole file; individual bad rows are
// collected and skipped.
func (imp *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := MapHeader(header)
	if err != nil {
		return nil, err
	}

	result := &Result{BatchID: uuid.NewString()}
	var rowErrs *multierror.Error

	var pending *requestdomain.CreateRequest
	flush := func() {
		if pending == nil {
			return
		}
		created, err := imp.requests.Create(ctx, *pending)
		if err != nil {
			rowErrs = multierror.Append(rowErrs, fmt.Errorf("customer %s: %w", pending.CustomerEmail, err))
			result.RowsOK -= len(pending.Items)
		} else {
			result.RequestIDs = append(result.RequestIDs, created.ID.String())
		}
		pending = nil
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = multierror.Append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}
		if isBlank(row) {
			continue
		}
		result.RowsTotal++

		parsed, err := parseRow(columns, row)
		if err != nil {
			rowErrs = multierror.Append(rowErrs, &RowError{Line: line, Err: err})
			continue
		}

		if pending == nil || !strings.EqualFold(pending.CustomerEmail, parsed.email) {
			flush()
			pending = &requestdomain.CreateRequest{
				CustomerName:  parsed.name,
				CustomerEmail: parsed.email,
				Park:          parsed.park,
			}
		}
		pending.Items = append(pending.Items, parsed.item)
		result.RowsOK++
	}
	flush()

	result.RowErrors = errorStrings(rowErrs)
	imp.log.Info("import batch processed",
		zap.String("batch_id", result.BatchID),
		zap.Int("rows_total", result.RowsTotal),
		zap.Int("rows_ok", result.RowsOK),
		zap.Int("requests", len(result.RequestIDs)),
		zap.Int("row_errors", len(result.RowErrors)),
	)
	return result, nil
}

type parsedRow struct {
	name  string
	email string
	park  string
	item  requestdomain.CreateRequestItem
}

func parseRow(columns ColumnMap, row []string) (parsedRow, error) {
	parsed := parsedRow{
		name:  columns.Value(row, FieldCustomerName),
		email: strings.ToLower(columns.Value(row, FieldCustomerEmail)),
		park:  columns.Value(row, FieldPark),
	}
	if parsed.name == "" {
		return parsedRow{}, requestdomain.ErrInvalidCustomerName
	}
	if parsed.email == "" || !strings.Contains(parsed.email, "@") {
		return parsedRow{}, requestdomain.ErrInvalidCustomerEmail
	}

	itemName := columns.Value(row, FieldItemName)
	if itemName == "" {
		return parsedRow{}, requestdomain.ErrInvalidItem
	}

	quantity := int64(1)
	if raw := columns.Value(row, FieldQuantity); raw != "" {
		quantity, _ = strconv.ParseInt(raw, 10, 64)
		if quantity <= 0 {
			return parsedRow{}, fmt.Errorf("invalid quantity %q", raw)
		}
	}

	budget := decimal.Zero
	if raw := columns.Value(row, FieldBudgetPrice); raw != "" {
		var err error
		budget, err = decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err != nil || budget.IsNegative() {
			return parsedRow{}, fmt.Errorf("invalid budget price %q", raw)
		}
	}

	parsed.item = requestdomain.CreateRequestItem{
		Name:        itemName,
		Category:    strings.ToLower(columns.Value(row, FieldCategory)),
		Quantity:    quantity,
		BudgetPrice: budget,
		Notes:       columns.Value(row, FieldNotes),
	}
	return parsed, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func errorStrings(errs *multierror.Error) []string {
	if errs == nil {
		return nil
	}
	out := make([]string, 0, len(errs.Errors))
	for _, err := range errs.Errors {
		out = append(out, err.Error())
	}
	return out
}
