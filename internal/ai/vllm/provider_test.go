package vllm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
	"github.com/kiranshivaraju/hindsight/internal/config"
)

func TestNewProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"from vllm"}}]}`))
	}))
	defer srv.Close()

	p := NewProvider(config.ProviderConfig{BaseURL: srv.URL, Model: "mistral-7b", APIKey: "ignored"}, transport.New(transport.Options{Timeout: time.Second}))
	assert.Equal(t, "vllm", p.Name())

	out, err := p.Generate(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "from vllm", out)
}
