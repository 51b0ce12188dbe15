package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bimquery/internal/config"
	"bimquery/internal/utils"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const structuredSystemPrompt = "You answer with a single valid JSON object and nothing else. " +
	"No markdown, no commentary."

// OpenAIClient talks to an OpenAI-compatible API for structured inference,
// free-text answers and embeddings.
type OpenAIClient struct {
	config *config.OpenAIConfig
	client *openai.Client
	log    *zap.SugaredLogger
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg *config.OpenAIConfig, log *zap.SugaredLogger) *OpenAIClient {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.APIBase != "" {
		clientConfig.BaseURL = cfg.APIBase
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Timeout) * time.Second,
	}

	return &OpenAIClient{
		config: cfg,
		client: openai.NewClientWithConfig(clientConfig),
		log:    log,
	}
}

// IsEnabled returns whether the client is configured and ready
func (c *OpenAIClient) IsEnabled() bool {
	return c.config.Enabled
}

// InferStructured performs a JSON-mode chat completion and decodes the
// output into target. Unparseable output is retried up to the configured
// attempt count; provider errors surface immediately.
func (c *OpenAIClient) InferStructured(ctx context.Context, prompt string, target any) error {
	if !c.config.Enabled {
		return fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	attempts := c.config.ParseRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.config.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: structuredSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: float32(c.config.ChatTemperature),
			MaxTokens:   c.config.ChatMaxTokens,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return fmt.Errorf("%w: chat completion failed: %v", ErrInference, err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("%w: no response choices", ErrInference)
		}

		content := resp.Choices[0].Message.Content
		if err := utils.ParseAIJSON(content, target); err != nil {
			lastErr = err
			c.log.Warnf("Structured inference attempt %d/%d returned unparseable output: %v", attempt, attempts, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: output unparseable after %d attempts: %v", ErrInference, attempts, lastErr)
}

// InferText performs a free-form chat completion, no retry.
func (c *OpenAIClient) InferText(ctx context.Context, prompt string) (string, error) {
	if !c.config.Enabled {
		return "", fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(c.config.ChatTemperature),
		MaxTokens:   c.config.ChatMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion failed: %v", ErrInference, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response choices", ErrInference)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Embed generates an embedding for a single text
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings in provider-sized batches with a small
// delay between calls to respect rate limits. The result is aligned with
// the input; empty texts yield nil entries.
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if !c.config.Enabled {
		return nil, fmt.Errorf("openai: %w", ErrNotConfigured)
	}

	vectors := make([][]float32, len(texts))

	// Indexes of texts actually worth sending
	indexes := make([]int, 0, len(texts))
	inputs := make([]string, 0, len(texts))
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			indexes = append(indexes, i)
			inputs = append(inputs, t)
		}
	}
	if len(inputs) == 0 {
		return vectors, nil
	}

	batchSize := c.config.BatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for start := 0; start < len(inputs); start += batchSize {
		end := start + batchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model:      openai.EmbeddingModel(c.config.EmbeddingModel),
			Input:      inputs[start:end],
			Dimensions: c.config.EmbeddingDimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: embedding batch %d failed: %v", ErrInference, start/batchSize, err)
		}

		for _, item := range resp.Data {
			pos := start + item.Index
			if pos < len(indexes) {
				vectors[indexes[pos]] = item.Embedding
			}
		}

		// Rate limiting: small delay between batches
		if end < len(inputs) {
			time.Sleep(100 * time.Millisecond)
		}
	}

	return vectors, nil
}

// Ensure OpenAIClient implements AIClient
var _ AIClient = (*OpenAIClient)(nil)
