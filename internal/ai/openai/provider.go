package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Provider implements models.AIProvider against the chat completions API.
// It also serves OpenAI-compatible servers through NewCompatible.
type Provider struct {
	name   string
	cfg    config.ProviderConfig
	client *transport.Client
}

func NewProvider(cfg config.ProviderConfig, client *transport.Client) *Provider {
	return NewCompatible("openai", cfg, client)
}

// NewCompatible returns a Provider reporting name, for servers speaking the OpenAI wire format.
func NewCompatible(name string, cfg config.ProviderConfig, client *transport.Client) *Provider {
	return &Provider{name: name, cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/chat/completions"

	var headers map[string]string
	if p.cfg.APIKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}
	}

	var resp chatResponse
	if err := p.client.PostJSON(ctx, url, headers, chatRequest{
		Model:    p.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%w: no completion choices", transport.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ models.AIProvider = (*Provider)(nil)
