package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// CSVParser reads spreadsheet exports. Header names are matched without
// regard to case, surrounding whitespace or surrounding quotes.
type CSVParser struct {
	delimiter  rune
	headerMap  map[string]int
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
	fold       cases.Caser
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// NewCSVParser creates a new CSV parser from a reader
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter: ',',
		headerMap: make(map[string]int),
		fold:      cases.Fold(),
	}

	for _, opt := range opts {
		opt(parser)
	}

	buffered := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, err := buffered.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = buffered.Discard(3)
	} else if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	if err := validateUTF8(buffered); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(buffered)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = true
	parser.reader.TrimLeadingSpace = true
	parser.reader.FieldsPerRecord = -1

	return parser, nil
}

// ParseFromBytes creates a parser from a byte slice
func ParseFromBytes(data []byte, opts ...ParserOption) (*CSVParser, error) {
	return NewCSVParser(bytes.NewReader(data), opts...)
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read document for encoding validation: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return ErrEmptyFile
	}
	// A multi-byte rune may straddle the peek window.
	for i := 0; i < utf8.UTFMax && !utf8.Valid(content) && len(content) == checkSize; i++ {
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads and indexes the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		header := CleanField(h)
		p.headers[i] = header
		key := p.normalize(header)
		if _, dup := p.headerMap[key]; !dup {
			p.headerMap[key] = i
		}
	}
	p.currentRow = 1

	return nil
}

// Headers returns the cleaned header names in column order
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a column exists, ignoring case
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerMap[p.normalize(name)]
	return ok
}

// GetColumnIndex returns the index of a column by name, ignoring case
func (p *CSVParser) GetColumnIndex(name string) (int, bool) {
	idx, ok := p.headerMap[p.normalize(name)]
	return idx, ok
}

// ValidateHeaders returns the required headers that are not present
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data line with cleaned field values
type Row struct {
	LineNumber int
	fields     []string
	parser     *CSVParser
}

// Get returns the cleaned value for a column, or "" when absent
func (r *Row) Get(header string) string {
	idx, ok := r.parser.GetColumnIndex(header)
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return r.fields[idx]
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	for _, v := range r.fields {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row from the document
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++

	fields := make([]string, len(record))
	for i, v := range record {
		fields[i] = CleanField(v)
	}
	return &Row{LineNumber: p.currentRow, fields: fields, parser: p}, nil
}

// ReadAllRows reads all remaining rows, skipping blank lines
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TotalRows returns the total number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}

func (p *CSVParser) normalize(header string) string {
	return p.fold.String(CleanField(header))
}

// CleanField trims whitespace and strips quotes left around a value
func CleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
