package ai

import (
	"errors"
	"fmt"

	"github.com/kiranshivaraju/hindsight/internal/ai/transport"
)

// ErrCorpusUnavailable is returned by Analyze when no pattern corpus has been loaded.
var ErrCorpusUnavailable = errors.New("pattern corpus not loaded")

// Provider failure sentinels, re-exported so callers need not import transport.
var (
	ErrProviderUnavailable = transport.ErrProviderUnavailable
	ErrInferenceTimeout    = transport.ErrInferenceTimeout
	ErrInvalidResponse     = transport.ErrInvalidResponse
	ErrRateLimited         = transport.ErrRateLimited
	ErrUnauthorized        = transport.ErrUnauthorized
)

// CollaboratorError wraps a failure of the generation provider.
type CollaboratorError struct {
	Provider string
	Err      error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
