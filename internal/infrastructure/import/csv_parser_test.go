package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFProduct Name,Price\nWidget,1"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, "Product Name", parser.Headers()[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("  \n"))
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Nil(t, parser)
	})

	t.Run("Invalid encoding returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("name\n\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("name;price\nWidget;1"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"name", "price"}, parser.Headers())
	})
}

func TestParseHeader_CaseAndQuotesIgnored(t *testing.T) {
	parser, err := ParseFromBytes([]byte(`  "PRODUCT NAME" , inventory ,"Price"` + "\nWidget,1,2"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.True(t, parser.HasHeader("Product Name"))
	assert.True(t, parser.HasHeader("INVENTORY"))
	idx, ok := parser.GetColumnIndex("price")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, []string{"Resale"}, parser.ValidateHeaders([]string{"Price", "Resale"}))
}

func TestParseHeader_NoHeader(t *testing.T) {
	parser, err := ParseFromBytes([]byte("\n\n "))
	if err != nil {
		assert.ErrorIs(t, err, ErrEmptyFile)
		return
	}
	assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
}

func TestReadRow(t *testing.T) {
	parser, err := ParseFromBytes([]byte("name,price\n\" Widget \",\"$2.50\"\nGadget"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "Widget", row.Get("NAME"))
	assert.Equal(t, "$2.50", row.Get("price"))

	row, err = parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, "Gadget", row.Get("name"))
	assert.Equal(t, "", row.Get("price"), "short rows yield empty values")
	assert.Equal(t, "", row.Get("missing"))

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, parser.TotalRows())
}

func TestReadAllRows_SkipsBlankLines(t *testing.T) {
	parser, err := ParseFromBytes([]byte("name,price\nA,1\n,\n\nB,2\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Get("name"))
	assert.Equal(t, "B", rows[1].Get("name"))
}

func TestCleanField(t *testing.T) {
	assert.Equal(t, "Widget", CleanField(`  "Widget"  `))
	assert.Equal(t, "a \"b\" c", CleanField(`a "b" c`))
	assert.Equal(t, "", CleanField(`""`))
}
