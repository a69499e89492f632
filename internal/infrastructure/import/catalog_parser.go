package csvimport

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// Catalog column names
const (
	ColumnProductName = "Product Name"
	ColumnInventory   = "Inventory"
	ColumnPrice       = "Price"
	ColumnResale      = "Resale"
)

// RequiredColumns lists the columns a catalog document must carry
var RequiredColumns = []string{ColumnProductName, ColumnInventory, ColumnPrice, ColumnResale}

// MsgMissingColumns prefixes the error for a document lacking required columns.
const MsgMissingColumns = "Missing required columns in spreadsheet (Product Name, Inventory, Price, Resale)"

// CatalogParseResult is the outcome of parsing a catalog document.
// Products keep input order. Rows that are not for sale are excluded.
type CatalogParseResult struct {
	Products    []catalog.Product
	Errors      []RowError
	TotalErrors int
	TotalRows   int
	Excluded    int
}

// Catalog builds a snapshot from the parsed products
func (r *CatalogParseResult) Catalog(fetchedAt time.Time) *catalog.Catalog {
	return catalog.NewCatalog(r.Products, fetchedAt)
}

// ParseCatalog parses a catalog document. It returns a parse error only when
// the document as a whole is unusable; bad rows are reported in the result.
func ParseCatalog(data []byte) (*CatalogParseResult, error) {
	parser, err := ParseFromBytes(data)
	if err != nil {
		return nil, documentError(err)
	}
	return parseCatalog(parser)
}

// ParseCatalogReader is ParseCatalog over a stream
func ParseCatalogReader(r io.Reader) (*CatalogParseResult, error) {
	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, documentError(err)
	}
	return parseCatalog(parser)
}

func parseCatalog(parser *CSVParser) (*CatalogParseResult, error) {
	if err := parser.ParseHeader(); err != nil {
		return nil, documentError(err)
	}
	if missing := parser.ValidateHeaders(RequiredColumns); len(missing) > 0 {
		return nil, shared.NewParseError(fmt.Sprintf("%s: missing %s", MsgMissingColumns, strings.Join(missing, ", ")))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, documentError(err)
	}

	errs := NewRowErrors(0)
	result := &CatalogParseResult{Products: make([]catalog.Product, 0, len(rows))}
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		product, ok := parseProductRow(row, errs)
		if !ok {
			result.Excluded++
			continue
		}
		if _, dup := seen[product.Name]; dup {
			errs.Duplicate(row.LineNumber, ColumnProductName, product.Name)
			result.Excluded++
			continue
		}
		seen[product.Name] = struct{}{}
		result.Products = append(result.Products, product)
	}

	result.TotalRows = parser.TotalRows()
	result.Errors = errs.List()
	result.TotalErrors = errs.Total()
	return result, nil
}

// parseProductRow converts one row. ok is false when the row is not for sale.
func parseProductRow(row *Row, errs *RowErrors) (catalog.Product, bool) {
	name := row.Get(ColumnProductName)
	if name == "" {
		errs.Missing(row.LineNumber, ColumnProductName)
		return catalog.Product{}, false
	}

	if strings.EqualFold(row.Get(ColumnResale), "false") {
		return catalog.Product{}, false
	}

	rawInventory := row.Get(ColumnInventory)
	inventory, err := parseInventory(rawInventory)
	if err != nil {
		errs.WrongType(row.LineNumber, ColumnInventory, "integer", rawInventory)
		return catalog.Product{}, false
	}
	if inventory <= 0 {
		return catalog.Product{}, false
	}

	price := parsePrice(row, errs)

	product, err := catalog.NewProduct(name, inventory, price)
	if err != nil {
		errs.BadFormat(row.LineNumber, ColumnProductName, "valid product", name)
		return catalog.Product{}, false
	}
	return product, true
}

// parseInventory accepts integer text, optionally with a zero fraction such
// as "3.0". Exponents and values outside the int range are rejected.
func parseInventory(raw string) (int, error) {
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if hasFrac && (frac == "" || strings.Trim(frac, "0") != "") {
		return 0, fmt.Errorf("invalid inventory %q", raw)
	}
	n, err := strconv.Atoi(whole)
	if err != nil {
		return 0, fmt.Errorf("invalid inventory %q: %w", raw, err)
	}
	return n, nil
}

func parsePrice(row *Row, errs *RowErrors) catalog.Price {
	raw := row.Get(ColumnPrice)
	if raw == "" {
		errs.Missing(row.LineNumber, ColumnPrice)
		return catalog.UnavailablePrice()
	}

	cleaned := strings.TrimSpace(strings.TrimPrefix(raw, "$"))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		errs.BadFormat(row.LineNumber, ColumnPrice, "decimal number", raw)
		return catalog.UnavailablePrice()
	}
	if amount.IsNegative() {
		errs.OutOfRange(row.LineNumber, ColumnPrice, "price cannot be negative", raw)
		return catalog.UnavailablePrice()
	}
	return catalog.NewPrice(valueobject.NewMoney(amount))
}

func documentError(err error) error {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	return shared.WrapDomainError(shared.CodeParse, "Invalid catalog document", err)
}
