package dataset

import (
	"fmt"
	"sort"
	"strings"

	"realestate-agent/internal/common/errors"
)

// Action selects the shape of a flexible query result.
type Action string

const (
	ActionShow      Action = "show"
	ActionAggregate Action = "aggregate"
	ActionCount     Action = "count"
	ActionCompare   Action = "compare"
)

// ParseAction defaults unknown values to show.
func ParseAction(s string) Action {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAggregate:
		return ActionAggregate
	case ActionCount:
		return ActionCount
	case ActionCompare:
		return ActionCompare
	default:
		return ActionShow
	}
}

// QueryResult is the outcome of QueryFlexible. Status "no_data" is a
// successful empty result, not an error.
type QueryResult struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	Filters      map[string]interface{} `json:"filters,omitempty"`
	Count        int                    `json:"count"`
	TotalProfit  float64                `json:"total_profit"`
	Rows         []Row                  `json:"rows,omitempty"`
	Showing      int                    `json:"showing,omitempty"`
	TotalRows    int                    `json:"total_rows,omitempty"`
	Aggregations *Aggregations          `json:"aggregations,omitempty"`
	Counts       *Counts                `json:"counts,omitempty"`
}

type Aggregations struct {
	ByLedgerType map[string]float64 `json:"by_ledger_type"`
	ByProperty   map[string]float64 `json:"by_property"`
	ByYear       map[int]float64    `json:"by_year"`
}

type Counts struct {
	Total        int            `json:"total"`
	ByLedgerType map[string]int `json:"by_ledger_type"`
	ByProperty   map[string]int `json:"by_property"`
}

// QueryFlexible filters rows with AND-combined column filters and shapes the
// result per action. String filters match case-insensitive substrings;
// numeric filters match exactly; a month filter given as an int matches the
// "-MNN" suffix regardless of year.
func (s *Store) QueryFlexible(filters map[string]interface{}, action Action, limit int) *QueryResult {
	var matched []Row
	for _, row := range s.rows() {
		if rowMatches(row, filters) {
			matched = append(matched, row)
		}
	}

	if len(matched) == 0 {
		return &QueryResult{
			Status:  "no_data",
			Message: "No records found matching the filters.",
			Filters: filters,
		}
	}

	result := &QueryResult{
		Status:      "success",
		Filters:     filters,
		Count:       len(matched),
		TotalProfit: sumProfit(matched),
	}

	switch action {
	case ActionAggregate:
		aggs := &Aggregations{
			ByLedgerType: make(map[string]float64),
			ByProperty:   make(map[string]float64),
			ByYear:       make(map[int]float64),
		}
		for _, row := range matched {
			aggs.ByLedgerType[row.LedgerType] += row.Profit
			aggs.ByProperty[row.PropertyName] += row.Profit
			aggs.ByYear[row.Year] += row.Profit
		}
		result.Aggregations = aggs

	case ActionCount:
		counts := &Counts{
			Total:        len(matched),
			ByLedgerType: make(map[string]int),
			ByProperty:   make(map[string]int),
		}
		for _, row := range matched {
			counts.ByLedgerType[row.LedgerType]++
			counts.ByProperty[row.PropertyName]++
		}
		result.Counts = counts

	default: // show
		shown := matched
		if limit > 0 && len(shown) > limit {
			shown = shown[:limit]
		}
		result.Rows = shown
		result.Showing = len(shown)
		result.TotalRows = len(matched)
	}

	return result
}

// TotalPnL sums profit over rows matching the optional period filters.
// Year alone, month alone, or both are all valid; an empty match set sums
// to zero, it is not an error.
func (s *Store) TotalPnL(year, month *int) float64 {
	var total float64
	monthSuffix := ""
	if month != nil {
		monthSuffix = fmt.Sprintf("-M%02d", *month)
	}
	for _, row := range s.rows() {
		if year != nil && row.Year != *year {
			continue
		}
		if month != nil && !strings.HasSuffix(row.Month, monthSuffix) {
			continue
		}
		total += row.Profit
	}
	return total
}

// AssetSummary is the per-property financial profile.
type AssetSummary struct {
	PropertyName string        `json:"property_name"`
	EntityName   string        `json:"entity_name"`
	TotalRecords int           `json:"total_records"`
	TotalProfit  float64       `json:"total_profit"`
	Tenants      []string      `json:"tenants"`
	LedgerTotals []LedgerTotal `json:"ledger_totals"`
}

type LedgerTotal struct {
	LedgerType string  `json:"ledger_type"`
	Total      float64 `json:"total"`
}

// GetSingleAsset builds a summary for the property whose name contains the
// query, case-insensitively. NOT_FOUND when nothing matches.
func (s *Store) GetSingleAsset(propertyQuery string) (*AssetSummary, error) {
	subset := s.filterByProperty(propertyQuery)
	if len(subset) == 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Property '%s' not found.", propertyQuery))
	}
	return summarize(subset), nil
}

// AssetValue is one entry of a price comparison, ranked from most to least
// profitable.
type AssetValue struct {
	PropertyName string  `json:"property_name"`
	Value        float64 `json:"value"`
	Records      int     `json:"records"`
	Rank         int     `json:"rank"`
}

// CompareAssetsByPrice aggregates total P&L for each requested property and
// ranks them descending by value (ties broken by name). Any absent id fails
// the whole comparison with NOT_FOUND. The ranking is independent of the
// input order.
func (s *Store) CompareAssetsByPrice(queries []string) ([]AssetValue, error) {
	if len(queries) < 2 {
		return nil, errors.NewValidationError("To compare, I need at least two property names.")
	}

	values := make([]AssetValue, 0, len(queries))
	for _, q := range queries {
		subset := s.filterByProperty(q)
		if len(subset) == 0 {
			return nil, errors.NewNotFoundError(fmt.Sprintf("Property with name like '%s' not found in dataset.", q))
		}
		values = append(values, AssetValue{
			PropertyName: subset[0].PropertyName,
			Value:        sumProfit(subset),
			Records:      len(subset),
		})
	}

	sort.SliceStable(values, func(i, j int) bool {
		if values[i].Value != values[j].Value {
			return values[i].Value > values[j].Value
		}
		return values[i].PropertyName < values[j].PropertyName
	})
	for i := range values {
		values[i].Rank = i + 1
	}

	return values, nil
}

func (s *Store) filterByProperty(query string) []Row {
	q := strings.ToLower(query)
	var out []Row
	for _, row := range s.rows() {
		if strings.Contains(strings.ToLower(row.PropertyName), q) {
			out = append(out, row)
		}
	}
	return out
}

func summarize(subset []Row) *AssetSummary {
	totals := make(map[string]float64)
	seen := make(map[string]bool)
	var tenants []string
	for _, row := range subset {
		totals[row.LedgerType] += row.Profit
		if row.TenantName != "" && !seen[row.TenantName] {
			seen[row.TenantName] = true
			tenants = append(tenants, row.TenantName)
		}
	}

	ledgerTotals := make([]LedgerTotal, 0, len(totals))
	for ledger, total := range totals {
		ledgerTotals = append(ledgerTotals, LedgerTotal{LedgerType: ledger, Total: total})
	}
	sort.SliceStable(ledgerTotals, func(i, j int) bool {
		if ledgerTotals[i].Total != ledgerTotals[j].Total {
			return ledgerTotals[i].Total > ledgerTotals[j].Total
		}
		return ledgerTotals[i].LedgerType < ledgerTotals[j].LedgerType
	})

	return &AssetSummary{
		PropertyName: subset[0].PropertyName,
		EntityName:   subset[0].EntityName,
		TotalRecords: len(subset),
		TotalProfit:  sumProfit(subset),
		Tenants:      tenants,
		LedgerTotals: ledgerTotals,
	}
}

func sumProfit(rows []Row) float64 {
	var total float64
	for _, row := range rows {
		total += row.Profit
	}
	return total
}

func rowMatches(row Row, filters map[string]interface{}) bool {
	for column, value := range filters {
		if !columnMatches(row, column, value) {
			return false
		}
	}
	return true
}

func columnMatches(row Row, column string, value interface{}) bool {
	switch column {
	case "year":
		want, ok := asInt(value)
		if !ok {
			return false
		}
		return row.Year == want
	case "month":
		if m, ok := asInt(value); ok {
			return strings.HasSuffix(row.Month, fmt.Sprintf("-M%02d", m))
		}
		return containsFold(row.Month, value)
	case "profit":
		want, ok := asFloat(value)
		return ok && row.Profit == want
	case "entity_name":
		return containsFold(row.EntityName, value)
	case "property_name":
		return containsFold(row.PropertyName, value)
	case "tenant_name":
		return containsFold(row.TenantName, value)
	case "ledger_type":
		return containsFold(row.LedgerType, value)
	case "ledger_group":
		return containsFold(row.LedgerGroup, value)
	case "ledger_category":
		return containsFold(row.LedgerCategory, value)
	case "ledger_code":
		return containsFold(row.LedgerCode, value)
	case "ledger_description":
		return containsFold(row.LedgerDescription, value)
	case "quarter":
		return containsFold(row.Quarter, value)
	default:
		// Unknown filter keys are ignored, mirroring best-effort extraction.
		return true
	}
}

func containsFold(field string, value interface{}) bool {
	want := fmt.Sprintf("%v", value)
	return strings.Contains(strings.ToLower(field), strings.ToLower(want))
}

func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
