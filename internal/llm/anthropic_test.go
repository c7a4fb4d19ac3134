package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicGenerate(t *testing.T) {
	var gotKey, gotVersion string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "total_pnl"}},
		})
	}))
	defer server.Close()

	client := NewAnthropic("anthropic-key", "claude-sonnet", server.URL, Options{MaxRetries: 1})
	out, err := client.Generate(context.Background(), "classify", "total profit?")

	require.NoError(t, err)
	assert.Equal(t, "total_pnl", out)
	assert.Equal(t, "anthropic-key", gotKey)
	assert.NotEmpty(t, gotVersion)
	assert.Equal(t, "classify", gotBody["system"])
}

func TestAnthropicOmitsEmptySystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasSystem := body["system"]
		assert.False(t, hasSystem)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": "ok"}},
		})
	}))
	defer server.Close()

	client := NewAnthropic("key", "model", server.URL, Options{MaxRetries: 0})
	_, err := client.Generate(context.Background(), "", "hi")
	require.NoError(t, err)
}
