// Package models contains shared data models used across the Hindsight codebase.
package models

import "context"

// AIProvider is the generation collaborator every model integration implements.
// Callers depend on this interface rather than a concrete backend.
type AIProvider interface {
	// Generate sends a single prompt and returns the raw text reply.
	Generate(ctx context.Context, prompt string) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "gemini").
	Name() string
}
