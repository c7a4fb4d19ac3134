package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"realestate-agent/internal/common/errors"
)

// RequiredColumns must all be present in an uploaded CSV.
var RequiredColumns = []string{
	"entity_name",
	"property_name",
	"tenant_name",
	"ledger_type",
	"ledger_group",
	"ledger_category",
	"ledger_code",
	"ledger_description",
	"month",
	"quarter",
	"year",
	"profit",
}

// ParseCSV reads a row-oriented ledger CSV. "\N" is treated as null;
// non-numeric or missing profit values contribute zero rather than
// poisoning aggregates.
func ParseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewDatasetError(fmt.Sprintf("cannot read CSV header: %v", err))
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, errors.NewDatasetError(
			"dataset is missing required columns: " + strings.Join(missing, ", "))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDatasetError(fmt.Sprintf("malformed CSV record: %v", err))
		}

		field := func(col string) string {
			i := index[col]
			if i >= len(record) {
				return ""
			}
			v := strings.TrimSpace(record[i])
			if v == `\N` {
				return ""
			}
			return v
		}

		rows = append(rows, Row{
			EntityName:        field("entity_name"),
			PropertyName:      field("property_name"),
			TenantName:        field("tenant_name"),
			LedgerType:        field("ledger_type"),
			LedgerGroup:       field("ledger_group"),
			LedgerCategory:    field("ledger_category"),
			LedgerCode:        field("ledger_code"),
			LedgerDescription: field("ledger_description"),
			Month:             field("month"),
			Quarter:           field("quarter"),
			Year:              parseYear(field("year")),
			Profit:            parseProfit(field("profit")),
		})
	}

	return rows, nil
}

// LoadFile reads a ledger CSV from disk.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDatasetError(fmt.Sprintf("dataset file not found at %s", path))
	}
	defer f.Close()
	return ParseCSV(f)
}

func parseYear(s string) int {
	y, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "2025.0" style values from spreadsheet exports.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int(f)
		}
		return 0
	}
	return y
}

func parseProfit(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
