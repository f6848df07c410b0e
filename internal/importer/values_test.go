package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsum-dev/finsum/internal/model"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-87.43", "-87.43"},
		{"$1,234.56", "1234.56"},
		{"-$1,234.56", "-1234.56"},
		{"(12.50)", "-12.50"},
		{"($12.50)", "-12.50"},
		{"+25", "25.00"},
		{" €9.99 ", "9.99"},
		{"£1 000.00", "1000.00"},
		{"¥500", "500.00"},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		require.NoError(t, err, "ParseAmount(%q)", tt.in)
		assert.Equal(t, tt.want, got.StringFixed(2), "ParseAmount(%q)", tt.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "$", "1.2.3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "ParseAmount(%q)", in)
	}
}

func TestParseDate(t *testing.T) {
	iso, err := ParseDate("2025-10-24")
	require.NoError(t, err)
	us, err := ParseDate("10/24/2025")
	require.NoError(t, err)
	assert.Equal(t, iso, us)

	unpadded, err := ParseDate("1/5/2025")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC), unpadded)

	_, err = ParseDate("24.10.2025")
	assert.Error(t, err)
}

func TestParseType(t *testing.T) {
	assert.Equal(t, model.TypeDebit, ParseType("Debit"))
	assert.Equal(t, model.TypeDebit, ParseType(" DEBIT "))
	assert.Equal(t, model.TypeDebit, ParseType("withdrawal"))
	assert.Equal(t, model.TypeCredit, ParseType("credit"))
	assert.Equal(t, model.TypeCredit, ParseType("Deposit"))
	assert.Equal(t, model.TypeDebit, ParseType("out"))
	assert.Equal(t, model.TypeDebit, ParseType("-"))
	assert.Equal(t, model.TypeCredit, ParseType("IN"))
	assert.Equal(t, model.TypeCredit, ParseType("+"))
	assert.Equal(t, model.TypeUnknown, ParseType("transfer"))
	assert.Equal(t, model.TypeUnknown, ParseType(""))
}

func TestResolveHeader(t *testing.T) {
	h := ResolveHeader([]string{"Posting Date", "PAYEE", "amount", "Txn_Type", "Notes"})
	assert.Empty(t, h.Missing())
	assert.Equal(t, 0, h.Index[FieldDate])
	assert.Equal(t, 1, h.Index[FieldDescription])
	assert.Equal(t, 3, h.Index[FieldType])
	assert.Equal(t, []string{"Notes"}, h.Unknown)
}

func TestResolveHeader_FirstAliasWins(t *testing.T) {
	h := ResolveHeader([]string{"Date", "Posted Date", "Description", "Amount", "Type"})
	assert.Equal(t, 0, h.Index[FieldDate])
}

func TestHeaderMissing_CanonicalOrder(t *testing.T) {
	h := ResolveHeader([]string{"Description"})
	assert.Equal(t, []Field{FieldDate, FieldAmount, FieldType}, h.Missing())
}
