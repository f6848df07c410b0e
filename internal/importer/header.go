package importer

import (
	"strings"
)

// Field is a canonical column of a transactions file.
type Field string

const (
	FieldDate        Field = "Date"
	FieldDescription Field = "Description"
	FieldAmount      Field = "Amount"
	FieldType        Field = "Type"
	FieldCategory    Field = "Category"
	FieldAccount     Field = "Account"
	FieldBalance     Field = "Balance"
)

// RequiredFields must all be present after alias resolution.
var RequiredFields = []Field{FieldDate, FieldDescription, FieldAmount, FieldType}

// aliases maps normalized header text to a canonical field.
var aliases = map[string]Field{
	"date":             FieldDate,
	"transaction date": FieldDate,
	"txn date":         FieldDate,
	"trans date":       FieldDate,
	"posting date":     FieldDate,
	"posted date":      FieldDate,

	"description": FieldDescription,
	"memo":        FieldDescription,
	"details":     FieldDescription,
	"payee":       FieldDescription,
	"narrative":   FieldDescription,
	"merchant":    FieldDescription,

	"amount":             FieldAmount,
	"transaction amount": FieldAmount,
	"value":              FieldAmount,
	"amt":                FieldAmount,

	"type":             FieldType,
	"transaction type": FieldType,
	"txn type":         FieldType,
	"dr/cr":            FieldType,
	"debit/credit":     FieldType,

	"category":   FieldCategory,
	"categories": FieldCategory,

	"account":      FieldAccount,
	"account name": FieldAccount,

	"balance":         FieldBalance,
	"running balance": FieldBalance,
}

// Header is a resolved CSV header row.
type Header struct {
	Columns []string      // raw header cells
	Index   map[Field]int // canonical field -> column index
	Unknown []string      // columns with no alias
}

// ResolveHeader maps raw header cells to canonical fields.
// The first column that resolves to a field wins.
func ResolveHeader(cells []string) Header {
	h := Header{Columns: cells, Index: make(map[Field]int)}
	for i, c := range cells {
		f, ok := aliases[normalizeHeader(c)]
		if !ok {
			if strings.TrimSpace(c) != "" {
				h.Unknown = append(h.Unknown, strings.TrimSpace(c))
			}
			continue
		}
		if _, dup := h.Index[f]; !dup {
			h.Index[f] = i
		}
	}
	return h
}

// Has reports whether the field was found.
func (h Header) Has(f Field) bool {
	_, ok := h.Index[f]
	return ok
}

// Missing returns the required fields that are absent, in canonical order.
func (h Header) Missing() []Field {
	var out []Field
	for _, f := range RequiredFields {
		if !h.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
