package gemini

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
	"github.com/kiranshivaraju/hindsight/pkg/models"
)

// Provider implements models.AIProvider using the Gemini generateContent API.
type Provider struct {
	cfg    config.ProviderConfig
	client *transport.Client
}

func NewProvider(cfg config.ProviderConfig, client *transport.Client) *Provider {
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return "gemini" }

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.cfg.BaseURL, "/"), url.PathEscape(p.cfg.Model))
	headers := map[string]string{"x-goog-api-key": p.cfg.APIKey}

	var resp generateResponse
	if err := p.client.PostJSON(ctx, endpoint, headers, generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}, &resp); err != nil {
		return "", err
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", transport.ErrInvalidResponse)
	}
	var sb strings.Builder
	for _, pt := range resp.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty candidate", transport.ErrInvalidResponse)
	}
	return sb.String(), nil
}

var _ models.AIProvider = (*Provider)(nil)
