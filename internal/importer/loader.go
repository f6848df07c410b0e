package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/finsum-dev/finsum/internal/model"
)

var (
	// ErrFileNotFound is returned when the input path does not exist.
	ErrFileNotFound = errors.New("transaction file not found")
	// ErrEmptyDataset is returned when no row survives parsing.
	ErrEmptyDataset = errors.New("no valid transactions in file")
)

// ParseError is a file-level failure: unreadable encoding or malformed CSV.
type ParseError struct {
	Path string
	Line int // 0 when not tied to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// RowError describes a row that was skipped.
type RowError struct {
	Line   int
	Field  Field // empty for structural problems
	Value  string
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// Dataset is the result of loading one transactions file.
type Dataset struct {
	Set     model.TransactionSet
	Header  Header
	Skipped []RowError
}

// Load reads the CSV at path.
//
// When a required column is missing, Load returns the header with an empty
// set and no error; rejecting the schema is left to validation. Otherwise at
// least one row must parse, or ErrEmptyDataset is returned.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := decodeText(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	ds, err := Parse(strings.NewReader(text))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	ds.Set.Source = path
	return ds, nil
}

// decodeText honors a UTF-8 or UTF-16 byte order mark and requires the
// result to be valid UTF-8.
func decodeText(data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return "", fmt.Errorf("decoding: %w", err)
	}
	if !utf8.Valid(out) {
		return "", errors.New("file is not valid UTF-8 or UTF-16 text")
	}
	return strings.TrimPrefix(string(out), "\ufeff"), nil
}

// Parse reads CSV records from r. The first record is the header.
func Parse(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headerCells, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: file has no header", ErrEmptyDataset)
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	ds := &Dataset{Header: ResolveHeader(headerCells)}
	if len(ds.Header.Missing()) > 0 {
		return ds, nil
	}

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		line, _ := cr.FieldPos(0)

		if len(rec) != len(headerCells) {
			ds.Skipped = append(ds.Skipped, RowError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", len(headerCells), len(rec)),
			})
			continue
		}

		txn, rowErr := decodeRow(ds.Header, rec)
		if rowErr != nil {
			rowErr.Line = line
			ds.Skipped = append(ds.Skipped, *rowErr)
			continue
		}
		txn.Line = line
		ds.Set.Txns = append(ds.Set.Txns, txn)
	}

	if ds.Set.Len() == 0 {
		return nil, fmt.Errorf("%w (%d rows skipped)", ErrEmptyDataset, len(ds.Skipped))
	}
	return ds, nil
}

func csvParseError(err error) error {
	var ce *csv.ParseError
	if errors.As(err, &ce) {
		return &ParseError{Line: ce.Line, Err: ce.Err}
	}
	return &ParseError{Err: err}
}

func decodeRow(h Header, rec []string) (model.Transaction, *RowError) {
	get := func(f Field) string {
		if i, ok := h.Index[f]; ok {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	rawDate := get(FieldDate)
	date, err := ParseDate(rawDate)
	if err != nil {
		return model.Transaction{}, &RowError{Field: FieldDate, Value: rawDate, Reason: err.Error()}
	}

	rawAmount := get(FieldAmount)
	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return model.Transaction{}, &RowError{Field: FieldAmount, Value: rawAmount, Reason: err.Error()}
	}

	txn := model.Transaction{
		Date:        date,
		Description: get(FieldDescription),
		Amount:      amount,
		Type:        ParseType(get(FieldType)),
		Category:    get(FieldCategory),
		Account:     get(FieldAccount),
	}

	// Balance is informational; an unparseable balance is dropped, not fatal.
	if raw := get(FieldBalance); raw != "" {
		if b, err := ParseAmount(raw); err == nil {
			txn.Balance = &b
		}
	}
	return txn, nil
}
