package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

const (
	apiVersion = "2023-06-01"
	maxTokens  = 4096
)

// Provider implements models.AIProvider using the Anthropic Messages API.
type Provider struct {
	cfg    config.ProviderConfig
	client *transport.Client
}

func NewProvider(cfg config.ProviderConfig, client *transport.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "anthropic" }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v1/messages"
	headers := map[string]string{
		"x-api-key":         p.cfg.APIKey,
		"anthropic-version": apiVersion,
	}

	var resp messagesResponse
	if err := p.client.PostJSON(ctx, url, headers, messagesRequest{
		Model:     p.cfg.Model,
		MaxTokens: maxTokens,
		Messages:  []message{{Role: "user", Content: prompt}},
	}, &resp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: no text content", transport.ErrInvalidResponse)
	}
	return sb.String(), nil
}

var _ models.AIProvider = (*Provider)(nil)
