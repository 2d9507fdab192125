package ai_test

import (
	"testing"

	"github.com/kiranshivaraju/hindsight/internal/ai"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cfg := config.AIConfig{
		Ollama:    config.ProviderConfig{BaseURL: "http://localhost:11434", Model: "llama3"},
		VLLM:      config.ProviderConfig{BaseURL: "http://localhost:8000", Model: "mistral-7b"},
		OpenAI:    config.ProviderConfig{APIKey: "sk-test", Model: "gpt-4o"},
		Anthropic: config.ProviderConfig{APIKey: "sk-ant-test", Model: "claude-sonnet-4-5-20250929"},
		Gemini:    config.ProviderConfig{APIKey: "gm-test", Model: "gemini-1.5-pro"},
	}

	for _, name := range []string{"ollama", "vllm", "openai", "anthropic", "gemini"} {
		t.Run(name, func(t *testing.T) {
			c := cfg
			c.Provider = name
			p, err := ai.NewProvider(c)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name())
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := config.AIConfig{Provider: "unknown"}
	p, err := ai.NewProvider(cfg)
	assert.Nil(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestNewProvider_Empty(t *testing.T) {
	_, err := ai.NewProvider(config.AIConfig{})
	assert.Error(t, err)
}
