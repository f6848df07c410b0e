// Package runlog keeps an append-only CSV history of analysis runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp    time.Time
	RunID        string
	Source       string
	Transactions int
	TotalSpent   decimal.Decimal
	TotalIncome  decimal.Decimal
	Warnings     int
	Report       string // path of the written report
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,run_id,source,transactions,total_spent,total_income,warnings,report"

// FileName is the log file created inside the reports directory.
const FileName = "run-log.csv"

const (
	numFields       = 8
	colTimestamp    = 0
	colRunID        = 1
	colSource       = 2
	colTransactions = 3
	colTotalSpent   = 4
	colTotalIncome  = 5
	colWarnings     = 6
	colReport       = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colSource] = e.Source
	row[colTransactions] = strconv.Itoa(e.Transactions)
	row[colTotalSpent] = e.TotalSpent.StringFixed(2)
	row[colTotalIncome] = e.TotalIncome.StringFixed(2)
	row[colWarnings] = strconv.Itoa(e.Warnings)
	row[colReport] = e.Report
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	txns, err := strconv.Atoi(record[colTransactions])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing transactions %q: %w", record[colTransactions], err)
	}
	spent, err := decimal.NewFromString(record[colTotalSpent])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing total_spent %q: %w", record[colTotalSpent], err)
	}
	income, err := decimal.NewFromString(record[colTotalIncome])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing total_income %q: %w", record[colTotalIncome], err)
	}
	warns, err := strconv.Atoi(record[colWarnings])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing warnings %q: %w", record[colWarnings], err)
	}

	return Entry{
		Timestamp:    ts,
		RunID:        record[colRunID],
		Source:       record[colSource],
		Transactions: txns,
		TotalSpent:   spent,
		TotalIncome:  income,
		Warnings:     warns,
		Report:       record[colReport],
	}, nil
}

// Append writes entries to <dir>/run-log.csv, creating the file and header if needed.
func Append(dir string, entries ...Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating reports dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	werr := writeEntries(f, needsHeader, entries)
	if err := f.Close(); err != nil && werr == nil {
		return fmt.Errorf("closing run log: %w", err)
	}
	return werr
}

func writeEntries(w io.Writer, header bool, entries []Entry) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing run log: %w", err)
	}
	return nil
}

// Read returns all entries from <dir>/run-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
