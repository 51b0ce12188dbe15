package service

import (
	"context"
)

// AIClient is the interface for the inference/embedding provider. Every
// pipeline stage talks to it through prompts so the provider is swappable
// and mockable without touching the pipeline.
type AIClient interface {
	// InferStructured asks for machine-parseable JSON and decodes it into
	// target, retrying a bounded number of times on parse failure.
	InferStructured(ctx context.Context, prompt string, target any) error

	// InferText asks for a free-form answer, no retry.
	InferText(ctx context.Context, prompt string) (string, error)

	// Embed generates an embedding for a single text; nil for empty input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for texts, aligned by original index
	// with nil entries for empty/invalid inputs.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// IsEnabled returns whether the client is configured and ready
	IsEnabled() bool
}
