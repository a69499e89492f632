package csvimport

import (
	"strings"
	"testing"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestParseCatalog_ValidDocument(t *testing.T) {
	doc := "Product Name,Inventory,Price,Resale\nWidget,5,$2.50,true\nGadget,0,$1.00,true\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)

	require.Len(t, result.Products, 1)
	p := result.Products[0]
	assert.Equal(t, "Widget", p.Name)
	assert.Equal(t, 5, p.Inventory)
	assert.Equal(t, "$2.50", p.Price.String())
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.Excluded)
	assert.Empty(t, result.Errors)
}

func TestParseCatalog_HeaderVariants(t *testing.T) {
	doc := `"product name",  "INVENTORY",price, Resale ` + "\n\"Widget\",\"3\",\"4\",\"\"\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Widget", result.Products[0].Name)
	assert.Equal(t, "$4.00", result.Products[0].Price.String())
}

func TestParseCatalog_ColumnOrderIndependent(t *testing.T) {
	doc := "Resale,Price,Extra,Inventory,Product Name\ntrue,1.25,x,2,Gizmo\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Gizmo", result.Products[0].Name)
	assert.Equal(t, 2, result.Products[0].Inventory)
}

func TestParseCatalog_MissingColumn(t *testing.T) {
	doc := "Product Name,Inventory,Price\nWidget,5,2.50\n"

	_, err := ParseCatalog([]byte(doc))
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.CodeParse))
	assert.True(t, strings.HasPrefix(err.Error(), MsgMissingColumns))
	assert.Contains(t, err.Error(), "missing Resale")
}

func TestParseCatalog_EmptyDocument(t *testing.T) {
	_, err := ParseCatalog(nil)
	require.Error(t, err)
	assert.True(t, shared.IsKind(err, shared.CodeParse))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestParseCatalog_RowFiltering(t *testing.T) {
	doc := strings.Join([]string{
		"Product Name,Inventory,Price,Resale",
		"Keep,2,1.00,TRUE",
		"NotForSale,2,1.00,False",
		"NoStock,0,1.00,true",
		"Negative,-3,1.00,true",
		"BadInventory,lots,1.00,true",
		",4,1.00,true",
		"NoPrice,1,,true",
		"BadPrice,1,abc,true",
		"NegPrice,1,-2,true",
		"Keep,9,9.00,true",
		"Decimal Inventory,3.0,$1,234.50,true",
		"Huge,99999999999999999999,1.00,true",
		"Scientific,1e3,1.00,true",
		"Fractional,2.5,1.00,true",
		"TrailingDot,4.,1.00,true",
	}, "\n")

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Keep", "NoPrice", "BadPrice", "NegPrice", "Decimal Inventory"}, names(result.Products))
	assert.Equal(t, 2, result.Products[0].Inventory, "first duplicate wins")
	for _, p := range result.Products[1:4] {
		assert.False(t, p.Price.Available(), p.Name)
		assert.Equal(t, catalog.PriceNotAvailable, p.Price.String())
	}

	assert.Equal(t, 3, result.Products[4].Inventory)

	codes := map[string]int{}
	for _, e := range result.Errors {
		codes[e.Code]++
	}
	assert.Equal(t, 5, codes[ErrCodeImportInvalidType], "BadInventory, Huge, Scientific, Fractional, TrailingDot")
	assert.Equal(t, 2, codes[ErrCodeImportRequiredField], "blank name and blank price")
	assert.Equal(t, 1, codes[ErrCodeImportInvalidFormat], "BadPrice")
	assert.Equal(t, 1, codes[ErrCodeImportInvalidRange], "NegPrice")
	assert.Equal(t, 1, codes[ErrCodeImportDuplicateInFile], "second Keep")
}

func TestParseCatalog_UnquotedThousandsSplitsColumns(t *testing.T) {
	// An unquoted "1,234.50" shifts Resale into the next column; the price
	// column only sees "$1".
	doc := "Product Name,Inventory,Price,Resale\nBig,1,$1,234.50\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "$1.00", result.Products[0].Price.String())
}

func TestParseCatalog_QuotedThousands(t *testing.T) {
	doc := "Product Name,Inventory,Price,Resale\nBig,1,\"$1,234.50\",true\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "$1234.50", result.Products[0].Price.String())
}

func TestParseCatalog_PreservesOrder(t *testing.T) {
	doc := "Product Name,Inventory,Price,Resale\nC,1,1,\nA,1,1,\nB,1,1,\n"

	result, err := ParseCatalog([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, names(result.Products))

	snapshot := result.Catalog(time.Unix(10, 0))
	assert.Equal(t, 3, snapshot.Len())
	assert.Equal(t, time.Unix(10, 0), snapshot.FetchedAt())
}

func TestParseCatalogReader(t *testing.T) {
	result, err := ParseCatalogReader(strings.NewReader("Product Name,Inventory,Price,Resale\nWidget,1,1,true"))
	require.NoError(t, err)
	assert.Len(t, result.Products, 1)
}
