package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Provider implements models.AIProvider using Ollama.
type Provider struct {
	cfg    config.ProviderConfig
	client *transport.Client
}

func NewProvider(cfg config.ProviderConfig, client *transport.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "ollama" }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/api/generate"

	var resp generateResponse
	if err := p.client.PostJSON(ctx, url, nil, generateRequest{
		Model:  p.cfg.Model,
		Prompt: prompt,
		Stream: false,
	}, &resp); err != nil {
		return "", err
	}

	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("%w: empty response", transport.ErrInvalidResponse)
	}
	return resp.Response, nil
}

var _ models.AIProvider = (*Provider)(nil)
