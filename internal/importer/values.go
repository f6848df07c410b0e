package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finsum-dev/finsum/internal/model"
)

// DateFormats are the accepted date layouts, tried in order.
var DateFormats = []string{
	"2006-01-02", // ISO
	"01/02/2006", // US
	"1/2/2006",   // US, unpadded
}

// ParseDate parses s under one of DateFormats.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateFormats {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD or MM/DD/YYYY", s)
}

var amountCleaner = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", ",", "", " ", "")

// ParseAmount strips currency symbols and thousands separators and parses an
// exact decimal. Accounting negatives like "(12.50)" become -12.50.
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	s = amountCleaner.Replace(strings.TrimSpace(s))
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not numeric", raw)
	}
	return d, nil
}

// ParseType normalizes a debit/credit marker. Unrecognized values map to TypeUnknown.
func ParseType(s string) model.TxnType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "dr", "withdrawal", "expense", "out", "-":
		return model.TypeDebit
	case "credit", "cr", "deposit", "income", "in", "+":
		return model.TypeCredit
	}
	return model.TypeUnknown
}
