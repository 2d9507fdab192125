// Package vllm serves models through a vLLM server's OpenAI-compatible API.
package vllm

import (
	"github.com/kiranshivaraju/hindsight/internal/ai/openai"
	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
)

// NewProvider returns a chat-completions provider pointed at the vLLM server.
// vLLM does not authenticate, so any configured API key is dropped.
func NewProvider(cfg config.ProviderConfig, client *transport.Client) *openai.Provider {
	cfg.APIKey = ""
	return openai.NewCompatible("vllm", cfg, client)
}
