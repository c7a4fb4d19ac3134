package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realestate-agent/internal/common/config"
	"realestate-agent/internal/common/errors"
)

func TestFactoryNew(t *testing.T) {
	cfg := config.LLMConfig{
		OpenAIAPIKey:    "ok-key",
		AnthropicAPIKey: "an-key",
		Timeout:         30,
	}
	factory := NewFactory(cfg)

	t.Run("openai", func(t *testing.T) {
		client, err := factory.New("openai", "gpt-4o")
		require.NoError(t, err)
		assert.Equal(t, "openai", client.Provider())
	})

	t.Run("anthropic", func(t *testing.T) {
		client, err := factory.New("anthropic", "claude-sonnet")
		require.NoError(t, err)
		assert.Equal(t, "anthropic", client.Provider())
	})

	t.Run("mock needs no credentials", func(t *testing.T) {
		client, err := factory.New("mock", "")
		require.NoError(t, err)
		assert.Equal(t, "mock", client.Provider())
	})

	t.Run("missing key is a configuration error", func(t *testing.T) {
		_, err := NewFactory(config.LLMConfig{}).New("openai", "gpt-4o")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	})

	t.Run("google requires its key", func(t *testing.T) {
		_, err := factory.New("google_vertexai", "gemini-pro")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	})

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := factory.New("cohere", "command-r")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))
	})
}

func TestMockClientRules(t *testing.T) {
	client := NewMock().
		Respond("classify", "data_query").
		Fallback("general_qa")

	out, err := client.Generate(t.Context(), "please classify this", "show rows")
	require.NoError(t, err)
	assert.Equal(t, "data_query", out)

	out, err = client.Generate(t.Context(), "something else", "hello")
	require.NoError(t, err)
	assert.Equal(t, "general_qa", out)

	assert.Len(t, client.Calls(), 2)
}
