package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/internal/common/errors"
	"realestate-agent/internal/common/logger"
)

func intPtr(v int) *int { return &v }

func testRows() []Row {
	return []Row{
		{EntityName: "Entity A", PropertyName: "Building 17", TenantName: "Tenant 3", LedgerType: "Income", Month: "2025-M01", Quarter: "2025-Q1", Year: 2025, Profit: 100},
		{EntityName: "Entity A", PropertyName: "Building 17", TenantName: "Tenant 4", LedgerType: "Expense", Month: "2025-M06", Quarter: "2025-Q2", Year: 2025, Profit: -40},
		{EntityName: "Entity B", PropertyName: "Building 160", TenantName: "Tenant 9", LedgerType: "Income", Month: "2024-M01", Quarter: "2024-Q1", Year: 2024, Profit: 250},
		{EntityName: "Entity B", PropertyName: "Building 160", TenantName: "Tenant 9", LedgerType: "Expense", Month: "2024-M03", Quarter: "2024-Q1", Year: 2024, Profit: -30},
		{EntityName: "Entity C", PropertyName: "Tower Plaza", TenantName: "Tenant 12", LedgerType: "Income", Month: "2025-M01", Quarter: "2025-Q1", Year: 2025, Profit: 60},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(logger.NewTestLogger(t))
	store.Replace(testRows())
	return store
}

func TestParseCSV(t *testing.T) {
	t.Run("valid file with null markers", func(t *testing.T) {
		csv := strings.Join([]string{
			strings.Join(RequiredColumns, ","),
			`Entity A,Building 17,Tenant 3,Income,Rent,Base,4000,Base rent,2025-M01,2025-Q1,2025,100.5`,
			`Entity A,Building 17,\N,Expense,Ops,Cleaning,5100,\N,2025-M02,2025-Q1,2025.0,NaN`,
		}, "\n")

		rows, err := ParseCSV(strings.NewReader(csv))
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "Building 17", rows[0].PropertyName)
		assert.Equal(t, 2025, rows[0].Year)
		assert.Equal(t, 100.5, rows[0].Profit)

		assert.Empty(t, rows[1].TenantName, `\N should read as empty`)
		assert.Equal(t, 2025, rows[1].Year, "fractional year strings should parse")
		assert.Zero(t, rows[1].Profit, "NaN profit should coerce to zero")
	})

	t.Run("missing required columns", func(t *testing.T) {
		csv := "entity_name,property_name\nEntity A,Building 17\n"
		_, err := ParseCSV(strings.NewReader(csv))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeDataset))
		assert.Contains(t, err.Error(), "missing required columns")
	})
}

func TestQueryFlexible(t *testing.T) {
	store := newTestStore(t)

	t.Run("filters are AND combined", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{
			"property_name": "building 17",
			"year":          2025,
		}, ActionShow, 200)

		assert.Equal(t, "success", result.Status)
		assert.Equal(t, 2, result.Count)
		assert.Equal(t, 60.0, result.TotalProfit)
	})

	t.Run("string filters match substrings case-insensitively", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{"tenant_name": "tenant 9"}, ActionShow, 200)
		assert.Equal(t, 2, result.Count)
	})

	t.Run("month as int matches across years", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{"month": 1}, ActionShow, 200)
		assert.Equal(t, 3, result.Count)
	})

	t.Run("empty match is no_data not an error", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{"year": 1999}, ActionShow, 200)
		assert.Equal(t, "no_data", result.Status)
		assert.NotEmpty(t, result.Message)
	})

	t.Run("show respects the row limit", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{}, ActionShow, 2)
		assert.Equal(t, 2, result.Showing)
		assert.Equal(t, 5, result.TotalRows)
	})

	t.Run("aggregate groups by ledger type, property and year", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{}, ActionAggregate, 200)
		require.NotNil(t, result.Aggregations)
		assert.Equal(t, 410.0, result.Aggregations.ByLedgerType["Income"])
		assert.Equal(t, -70.0, result.Aggregations.ByLedgerType["Expense"])
		assert.Equal(t, 220.0, result.Aggregations.ByYear[2024])
	})

	t.Run("count tallies per dimension", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{}, ActionCount, 200)
		require.NotNil(t, result.Counts)
		assert.Equal(t, 5, result.Counts.Total)
		assert.Equal(t, 2, result.Counts.ByProperty["Building 17"])
	})

	t.Run("unknown filter keys are ignored", func(t *testing.T) {
		result := store.QueryFlexible(map[string]interface{}{"nonsense_key": "x"}, ActionShow, 200)
		assert.Equal(t, 5, result.Count)
	})
}

func TestTotalPnL(t *testing.T) {
	store := newTestStore(t)

	tests := []struct {
		name  string
		year  *int
		month *int
		want  float64
	}{
		{"no filters sums everything", nil, nil, 340},
		{"year filter", intPtr(2025), nil, 120},
		{"year and month", intPtr(2025), intPtr(1), 160},
		{"month alone spans years", nil, intPtr(1), 410},
		{"no matching rows sums to zero", intPtr(1999), nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, store.TotalPnL(tt.year, tt.month))
		})
	}
}

func TestTotalPnLEmptyDataset(t *testing.T) {
	store := NewStore(logger.NewTestLogger(t))
	assert.Zero(t, store.TotalPnL(nil, nil))
}

func TestGetSingleAsset(t *testing.T) {
	store := newTestStore(t)

	t.Run("summarizes a property matched by substring", func(t *testing.T) {
		summary, err := store.GetSingleAsset("building 17")
		require.NoError(t, err)
		assert.Equal(t, "Building 17", summary.PropertyName)
		assert.Equal(t, 2, summary.TotalRecords)
		assert.Equal(t, 60.0, summary.TotalProfit)
		assert.ElementsMatch(t, []string{"Tenant 3", "Tenant 4"}, summary.Tenants)
		require.Len(t, summary.LedgerTotals, 2)
		assert.Equal(t, "Income", summary.LedgerTotals[0].LedgerType, "ledger totals sort descending")
	})

	t.Run("unknown property is NOT_FOUND", func(t *testing.T) {
		_, err := store.GetSingleAsset("Building 999")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
}

func TestCompareAssetsByPrice(t *testing.T) {
	store := newTestStore(t)

	t.Run("ranks descending regardless of input order", func(t *testing.T) {
		forward, err := store.CompareAssetsByPrice([]string{"Building 17", "Building 160"})
		require.NoError(t, err)
		reversed, err := store.CompareAssetsByPrice([]string{"Building 160", "Building 17"})
		require.NoError(t, err)

		assert.Equal(t, forward, reversed)
		assert.Equal(t, "Building 160", forward[0].PropertyName)
		assert.Equal(t, 1, forward[0].Rank)
		assert.Equal(t, 220.0, forward[0].Value)
		assert.Equal(t, 2, forward[1].Rank)
	})

	t.Run("three-way comparison", func(t *testing.T) {
		values, err := store.CompareAssetsByPrice([]string{"Tower Plaza", "Building 17", "Building 160"})
		require.NoError(t, err)
		require.Len(t, values, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{values[0].Rank, values[1].Rank, values[2].Rank})
		assert.GreaterOrEqual(t, values[0].Value, values[1].Value)
		assert.GreaterOrEqual(t, values[1].Value, values[2].Value)
	})

	t.Run("fewer than two ids is a validation error", func(t *testing.T) {
		_, err := store.CompareAssetsByPrice([]string{"Building 17"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeValidation))
	})

	t.Run("any absent id fails the whole comparison", func(t *testing.T) {
		_, err := store.CompareAssetsByPrice([]string{"Building 17", "Building 999"})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
	})
}

func TestReplaceSwapsSnapshot(t *testing.T) {
	store := NewStore(logger.NewTestLogger(t))
	assert.Zero(t, store.Len())

	store.Replace(testRows())
	assert.Equal(t, 5, store.Len())

	store.Replace(testRows()[:1])
	assert.Equal(t, 1, store.Len())
}
