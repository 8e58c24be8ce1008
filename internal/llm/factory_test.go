package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompletionClient(t *testing.T) {
	t.Parallel()

	base := FactoryConfig{
		Temperature: 0.3,
		Timeout:     30 * time.Second,
		MaxRetries:  0,
		OpenAI:      OpenAIConfig{APIKey: "sk-test"},
		Anthropic:   AnthropicConfig{APIKey: "sk-ant-test"},
	}

	t.Run("openai", func(t *testing.T) {
		cfg := base
		cfg.Provider = "openai"
		client, err := NewCompletionClient(cfg)
		require.NoError(t, err)
		assert.Equal(t, "openai", client.Provider())
		assert.Equal(t, defaultOpenAIModel, client.Model())
	})

	t.Run("anthropic", func(t *testing.T) {
		cfg := base
		cfg.Provider = "anthropic"
		client, err := NewCompletionClient(cfg)
		require.NoError(t, err)
		assert.Equal(t, "anthropic", client.Provider())
		assert.Equal(t, defaultAnthropicModel, client.Model())
	})

	t.Run("unsupported provider", func(t *testing.T) {
		cfg := base
		cfg.Provider = "cohere"
		_, err := NewCompletionClient(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported LLM provider")
	})

	t.Run("empty provider", func(t *testing.T) {
		_, err := NewCompletionClient(base)
		require.Error(t, err)
	})
}
