package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/internal/dataset"
)

func TestDecodePayload(t *testing.T) {
	t.Run("plain JSON", func(t *testing.T) {
		payload, ok := decodePayload(`{"addresses": ["Building 17"], "year": 2025, "action": "show"}`)
		require.True(t, ok)
		assert.Equal(t, []string{"Building 17"}, payload.Addresses)
		require.NotNil(t, payload.Year)
		assert.Equal(t, 2025, *payload.Year)
	})

	t.Run("fenced JSON", func(t *testing.T) {
		raw := "```json\n{\"addresses\": [], \"year\": null, \"month\": 3, \"filters\": {}, \"action\": \"count\"}\n```"
		payload, ok := decodePayload(raw)
		require.True(t, ok)
		require.NotNil(t, payload.Month)
		assert.Equal(t, 3, *payload.Month)
	})

	t.Run("prose is rejected", func(t *testing.T) {
		_, ok := decodePayload("I think the user wants Building 17.")
		assert.False(t, ok)
	})

	t.Run("schema violations are rejected", func(t *testing.T) {
		_, ok := decodePayload(`{"addresses": "Building 17", "month": 13}`)
		assert.False(t, ok)
	})
}

func TestRegexFallback(t *testing.T) {
	t.Run("buildings, tenant and year", func(t *testing.T) {
		params := regexFallback("Show records for Building 17 and Tenant 4 in 2025")
		assert.Equal(t, []string{"Building 17"}, params.Addresses)
		assert.Equal(t, "Building 17", params.Filters["property_name"])
		assert.Equal(t, "Tenant 4", params.Filters["tenant_name"])
		require.NotNil(t, params.Year)
		assert.Equal(t, 2025, *params.Year)
		assert.Nil(t, params.Month)
	})

	t.Run("period token yields year and month", func(t *testing.T) {
		params := regexFallback("profit for 2025-M06 please")
		require.NotNil(t, params.Year)
		require.NotNil(t, params.Month)
		assert.Equal(t, 2025, *params.Year)
		assert.Equal(t, 6, *params.Month)
	})

	t.Run("multiple buildings for comparison", func(t *testing.T) {
		params := regexFallback("Compare Building 17 and Building 160")
		assert.Equal(t, []string{"Building 17", "Building 160"}, params.Addresses)
		assert.Equal(t, dataset.ActionCompare, params.Action)
	})

	t.Run("action keywords", func(t *testing.T) {
		assert.Equal(t, dataset.ActionCount, regexFallback("how many records are there").Action)
		assert.Equal(t, dataset.ActionAggregate, regexFallback("sum of profit by type").Action)
		assert.Equal(t, dataset.ActionShow, regexFallback("records for Building 1").Action)
	})
}

func TestReconcileFillsGapsFromQuery(t *testing.T) {
	payload := extractPayload{
		Filters: map[string]interface{}{"ledger_type": "Income"},
		Action:  "show",
	}
	params := reconcile(payload, "Income for Building 42 in 2023")

	assert.Equal(t, []string{"Building 42"}, params.Addresses)
	require.NotNil(t, params.Year)
	assert.Equal(t, 2023, *params.Year)
	assert.Equal(t, "Income", params.Filters["ledger_type"])
}

func TestReconcilePrefersPropertyFilterForAddress(t *testing.T) {
	payload := extractPayload{
		Filters: map[string]interface{}{"property_name": "Tower Plaza"},
	}
	params := reconcile(payload, "tell me about the plaza")
	assert.Equal(t, []string{"Tower Plaza"}, params.Addresses)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
