package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/genfin-dev/genfin/internal/model"
)

const (
	numFields  = 5
	colID      = 0
	colName    = 1
	colType    = 2
	colTaxLine = 3
	colDesc    = 4
)

// ReadChart reads a chart-of-accounts CSV.
func ReadChart(r io.Reader) ([]ChartEntry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var entries []ChartEntry
	for i, rec := range records[1:] {
		entry, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// WriteChart writes a chart-of-accounts CSV.
func WriteChart(w io.Writer, entries []ChartEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"account_id", "account_name", "account_type", "tax_line", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, entry := range entries {
		if err := cw.Write(MarshalEntry(entry)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// MarshalEntry converts a ChartEntry to a CSV row.
func MarshalEntry(entry ChartEntry) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(entry.ID)
	row[colName] = entry.Name
	row[colType] = string(entry.Type)
	row[colTaxLine] = entry.TaxLine
	row[colDesc] = entry.Description
	return row
}

// UnmarshalEntry converts a CSV row to a ChartEntry.
func UnmarshalEntry(record []string) (ChartEntry, error) {
	if len(record) != numFields {
		return ChartEntry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	id, err := strconv.Atoi(record[colID])
	if err != nil {
		return ChartEntry{}, fmt.Errorf("parsing account_id %q: %w", record[colID], err)
	}

	acctType := model.AccountType(record[colType])
	if !acctType.Valid() {
		return ChartEntry{}, fmt.Errorf("unknown account_type %q", record[colType])
	}

	return ChartEntry{
		ID:          id,
		Name:        record[colName],
		Type:        acctType,
		TaxLine:     record[colTaxLine],
		Description: record[colDesc],
	}, nil
}
