package ai

import (
	"fmt"

	"github.com/kiranshivaraju/hindsight/internal/ai/anthropic"
	"github.com/kiranshivaraju/hindsight/internal/ai/gemini"
	"github.com/kiranshivaraju/hindsight/internal/ai/ollama"
	"github.com/kiranshivaraju/hindsight/internal/ai/openai"
	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/ai/vllm"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at startup; the returned provider shares one rate-limited transport.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	client := transport.New(transport.Options{
		Timeout:        cfg.InferenceTimeout,
		MaxRetries:     cfg.MaxRetries,
		RequestsPerMin: cfg.RequestsPerMin,
	})

	switch cfg.Provider {
	case "ollama":
		return ollama.NewProvider(cfg.Ollama, client), nil
	case "vllm":
		return vllm.NewProvider(cfg.VLLM, client), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI, client), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic, client), nil
	case "gemini":
		return gemini.NewProvider(cfg.Gemini, client), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic, gemini", cfg.Provider)
	}
}
