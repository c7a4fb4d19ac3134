package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"realestate-agent/internal/dataset"
	"realestate-agent/internal/strategy"
)

// computeAnswer renders the retrieved result into the final markdown answer.
// Every data intent is formatted deterministically from the retrieval result;
// only general_qa consults the model here.
func (w *Workflow) computeAnswer(ctx context.Context, state State) State {
	if state.Err != nil {
		return state
	}

	switch state.Intent {
	case IntentGeneralQA:
		return w.answerGeneralQA(ctx, state)
	case IntentDataQuery:
		state.Answer = formatDataQuery(state.Retrieved.DataQuery)
	case IntentTotalPnL:
		state.Answer = formatTotalPnL(state.Retrieved.TotalPnL)
	case IntentAssetDetails:
		state.Answer = formatAssetSummary(state.Retrieved.Asset)
	case IntentPriceComparison:
		state.Answer = formatComparison(state.Retrieved.Comparison)
	}
	return state
}

func (w *Workflow) answerGeneralQA(ctx context.Context, state State) State {
	prompt, err := state.Strategy.Prompt(strategy.RoleGeneralQA)
	if err != nil {
		state.Err = err
		return state
	}
	answer, err := state.LLM.Generate(ctx, prompt, classifierInput(state))
	if err != nil {
		state.Err = err
		return state
	}
	state.Answer = strings.TrimSpace(answer)
	return state
}

// displayColumns are the row fields shown in data_query tables, in order.
var displayColumns = []string{"property_name", "tenant_name", "ledger_type", "month", "year", "profit"}

func formatDataQuery(result *dataset.QueryResult) string {
	if result.Status == "no_data" {
		return result.Message
	}

	var b strings.Builder
	b.WriteString("### Query Results\n\n")
	if desc := describeFilters(result.Filters); desc != "" {
		b.WriteString(fmt.Sprintf("Filters applied: %s\n\n", desc))
	}
	b.WriteString(fmt.Sprintf("**%d** matching records, total profit **%s**.\n\n",
		result.Count, formatAmount(result.TotalProfit)))

	switch {
	case result.Aggregations != nil:
		writeAggregations(&b, result.Aggregations)
	case result.Counts != nil:
		writeCounts(&b, result.Counts)
	default:
		writeRowTable(&b, result.Rows)
		if result.TotalRows > result.Showing {
			b.WriteString(fmt.Sprintf("\n...and %d more rows.\n", result.TotalRows-result.Showing))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRowTable(b *strings.Builder, rows []dataset.Row) {
	b.WriteString("| " + strings.Join(displayColumns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(displayColumns)) + "\n")
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
			row.PropertyName, row.TenantName, row.LedgerType, row.Month, row.Year,
			formatAmount(row.Profit)))
	}
}

func writeAggregations(b *strings.Builder, aggs *dataset.Aggregations) {
	b.WriteString("**Profit by ledger type:**\n")
	for _, k := range sortedKeysByValue(aggs.ByLedgerType) {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, formatAmount(aggs.ByLedgerType[k])))
	}
	b.WriteString("\n**Profit by property:**\n")
	for _, k := range sortedKeysByValue(aggs.ByProperty) {
		b.WriteString(fmt.Sprintf("- %s: %s\n", k, formatAmount(aggs.ByProperty[k])))
	}
	if len(aggs.ByYear) > 0 {
		b.WriteString("\n**Profit by year:**\n")
		years := make([]int, 0, len(aggs.ByYear))
		for y := range aggs.ByYear {
			years = append(years, y)
		}
		sort.Ints(years)
		for _, y := range years {
			b.WriteString(fmt.Sprintf("- %d: %s\n", y, formatAmount(aggs.ByYear[y])))
		}
	}
}

func writeCounts(b *strings.Builder, counts *dataset.Counts) {
	b.WriteString(fmt.Sprintf("**Total records: %d**\n\n", counts.Total))
	b.WriteString("**By ledger type:**\n")
	for _, k := range sortedKeysByCount(counts.ByLedgerType) {
		b.WriteString(fmt.Sprintf("- %s: %d\n", k, counts.ByLedgerType[k]))
	}
	b.WriteString("\n**By property:**\n")
	for _, k := range sortedKeysByCount(counts.ByProperty) {
		b.WriteString(fmt.Sprintf("- %s: %d\n", k, counts.ByProperty[k]))
	}
}

func formatTotalPnL(result *PnLResult) string {
	return fmt.Sprintf("The total recorded **Profit/Loss** %s is: **%s**",
		periodPhrase(result.Year, result.Month), formatAmount(result.Value))
}

// periodPhrase renders the time filter in plain words.
func periodPhrase(year, month *int) string {
	switch {
	case year != nil && month != nil:
		return fmt.Sprintf("for %s %d", time.Month(*month).String(), *year)
	case year != nil:
		return fmt.Sprintf("for the full year %d", *year)
	case month != nil:
		return fmt.Sprintf("for %s across all years", time.Month(*month).String())
	default:
		return "across all recorded dates"
	}
}

func formatAssetSummary(asset *dataset.AssetSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("### Financial Profile: %s\n\n", asset.PropertyName))
	b.WriteString(fmt.Sprintf("- **Entity:** %s\n", asset.EntityName))
	b.WriteString(fmt.Sprintf("- **Records:** %d\n", asset.TotalRecords))
	b.WriteString(fmt.Sprintf("- **Total Profit/Loss:** %s\n", formatAmount(asset.TotalProfit)))
	if len(asset.Tenants) > 0 {
		b.WriteString(fmt.Sprintf("- **Tenants:** %s\n", strings.Join(asset.Tenants, ", ")))
	}
	if len(asset.LedgerTotals) > 0 {
		b.WriteString("\n**Breakdown by ledger type:**\n")
		for _, lt := range asset.LedgerTotals {
			b.WriteString(fmt.Sprintf("- %s: %s\n", lt.LedgerType, formatAmount(lt.Total)))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatComparison(values []dataset.AssetValue) string {
	var b strings.Builder
	b.WriteString("### Profitability Comparison\n\n")
	for _, v := range values {
		b.WriteString(fmt.Sprintf("%d. **%s**: %s (%d records)\n",
			v.Rank, v.PropertyName, formatAmount(v.Value), v.Records))
	}
	leader, runnerUp := values[0], values[1]
	b.WriteString(fmt.Sprintf("\n**%s** leads with a margin of %s over %s.",
		leader.PropertyName, formatAmount(leader.Value-runnerUp.Value), runnerUp.PropertyName))
	return b.String()
}

func describeFilters(filters map[string]interface{}) string {
	if len(filters) == 0 {
		return ""
	}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, filters[k]))
	}
	return strings.Join(parts, ", ")
}

func formatAmount(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

// sortedKeysByValue orders map keys by descending value, ties by key.
func sortedKeysByValue(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func sortedKeysByCount(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
