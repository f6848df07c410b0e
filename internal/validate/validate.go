package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/finsum-dev/finsum/internal/importer"
	"github.com/finsum-dev/finsum/internal/model"
)

// ErrSchema matches any *SchemaError.
var ErrSchema = errors.New("schema error")

// SchemaError reports required columns that are entirely absent.
type SchemaError struct {
	Missing []importer.Field
}

func (e *SchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, f := range e.Missing {
		names[i] = string(f)
	}
	return "missing required columns: " + strings.Join(names, ", ")
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// Kind classifies a warning.
type Kind string

const (
	KindSkippedRow    Kind = "skipped-row"
	KindUnknownType   Kind = "unknown-type"
	KindSignMismatch  Kind = "sign-mismatch"
	KindDuplicate     Kind = "duplicate"
	KindUnknownColumn Kind = "unknown-column"
)

// Warning is a non-fatal data quality finding.
type Warning struct {
	Kind    Kind
	Line    int // 0 when not tied to a row
	Message string
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// Validate checks a loaded dataset. Only a missing required column is fatal.
func Validate(ds *importer.Dataset) ([]Warning, error) {
	if missing := ds.Header.Missing(); len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	var warns []Warning

	for _, col := range ds.Header.Unknown {
		warns = append(warns, Warning{
			Kind:    KindUnknownColumn,
			Message: fmt.Sprintf("unknown column %q ignored", col),
		})
	}

	for _, rej := range ds.Skipped {
		msg := "row skipped: " + rej.Reason
		if rej.Field != "" {
			msg = fmt.Sprintf("row skipped, invalid %s: %s", rej.Field, rej.Reason)
		}
		warns = append(warns, Warning{Kind: KindSkippedRow, Line: rej.Line, Message: msg})
	}

	seen := make(map[string]int)
	for _, t := range ds.Set.Txns {
		if t.Type == model.TypeUnknown {
			warns = append(warns, Warning{
				Kind:    KindUnknownType,
				Line:    t.Line,
				Message: "type is not Debit or Credit; amount sign used instead",
			})
		} else if !t.SignAgrees() {
			warns = append(warns, Warning{
				Kind:    KindSignMismatch,
				Line:    t.Line,
				Message: fmt.Sprintf("%s with amount %s", t.Type, t.Amount.StringFixed(2)),
			})
		}

		key := duplicateKey(t)
		if first, dup := seen[key]; dup {
			warns = append(warns, Warning{
				Kind:    KindDuplicate,
				Line:    t.Line,
				Message: fmt.Sprintf("duplicate of line %d", first),
			})
			continue
		}
		seen[key] = t.Line
	}

	return warns, nil
}

// Count returns how many warnings have the given kind.
func Count(warns []Warning, kind Kind) int {
	n := 0
	for _, w := range warns {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

func duplicateKey(t model.Transaction) string {
	return strings.Join([]string{
		t.Date.Format("2006-01-02"),
		strings.ToLower(t.Description),
		t.Amount.String(),
		string(t.Type),
	}, "|")
}
