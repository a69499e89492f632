package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Row error codes
const (
	ErrCodeImportRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType     = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidFormat   = "ERR_IMPORT_INVALID_FORMAT"
	ErrCodeImportInvalidRange    = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding")
	ErrMissingHeader   = errors.New("CSV file missing header row")
)

const defaultRowErrorLimit = 100

// RowError describes a problem with one catalog row. A bad row is skipped,
// the rest of the document still loads.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
}

// RowErrors keeps the first limit row errors and counts the rest
type RowErrors struct {
	kept  []RowError
	limit int
	total int
}

// NewRowErrors creates a collector. limit <= 0 uses the default of 100.
func NewRowErrors(limit int) *RowErrors {
	if limit <= 0 {
		limit = defaultRowErrorLimit
	}
	return &RowErrors{limit: limit}
}

func (r *RowErrors) add(row int, column, code, value, format string, args ...any) {
	r.total++
	if len(r.kept) >= r.limit {
		return
	}
	r.kept = append(r.kept, RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Value:   value,
	})
}

// Missing records an empty required cell
func (r *RowErrors) Missing(row int, column string) {
	r.add(row, column, ErrCodeImportRequiredField, "", "field '%s' is required", column)
}

// WrongType records a cell that is not of the expected kind, e.g. "integer"
func (r *RowErrors) WrongType(row int, column, want, value string) {
	r.add(row, column, ErrCodeImportInvalidType, value, "expected %s", want)
}

// BadFormat records a cell that could not be read as want
func (r *RowErrors) BadFormat(row int, column, want, value string) {
	r.add(row, column, ErrCodeImportInvalidFormat, value, "invalid format, expected %s", want)
}

// OutOfRange records a readable value that is not allowed
func (r *RowErrors) OutOfRange(row int, column, message, value string) {
	r.add(row, column, ErrCodeImportInvalidRange, value, "%s", message)
}

// Duplicate records a repeated key
func (r *RowErrors) Duplicate(row int, column, value string) {
	r.add(row, column, ErrCodeImportDuplicateInFile, value, "duplicate value '%s' found in file", value)
}

// List returns the kept errors in row order
func (r *RowErrors) List() []RowError {
	return r.kept
}

// Total counts every error, kept or not
func (r *RowErrors) Total() int {
	return r.total
}

// Truncated reports whether errors were dropped past the limit
func (r *RowErrors) Truncated() bool {
	return r.total > r.limit
}

// Summary renders the kept errors for logs
func (r *RowErrors) Summary() string {
	if r.total == 0 {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", r.total)
	if r.Truncated() {
		fmt.Fprintf(&sb, " (showing first %d)", r.limit)
	}
	sb.WriteString(":\n")
	for _, e := range r.kept {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	return sb.String()
}
