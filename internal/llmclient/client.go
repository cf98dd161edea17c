// Package llmclient wraps go-openai pointed at Gemini's OpenAI-compatible
// endpoint, the same way the teacher's internal/llm wraps openai.Client
// directly rather than hand-rolling an HTTP client for the model provider.
package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// Client generates structured JSON completions and embeddings against the
// configured model and embedding model.
type Client struct {
	client         *openai.Client
	model          string
	embeddingModel string
	logger         *logrus.Logger
}

// New creates a Client. apiKey and baseURL point go-openai at Gemini's
// OpenAI-compatible endpoint instead of OpenAI's own.
func New(apiKey, baseURL, model, embeddingModel string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		client:         openai.NewClientWithConfig(cfg),
		model:          model,
		embeddingModel: embeddingModel,
		logger:         logger,
	}
}

// GenerateJSON sends prompt as a user message with systemPrompt as the
// system message, and returns the model's response after stripping any
// markdown code fences, failing unless it is a JSON object. temperature of
// 0 uses the model's default.
func (c *Client) GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (json.RawMessage, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	content := cleanMarkdownJSON(resp.Choices[0].Message.Content)
	if !json.Valid([]byte(content)) {
		c.logger.Debugf("model response was not valid JSON: %s", content)
		return nil, fmt.Errorf("model response is not valid JSON")
	}
	if !strings.HasPrefix(content, "{") {
		return nil, fmt.Errorf("model response is not a JSON object")
	}
	return json.RawMessage(content), nil
}

// Embed generates a single embedding vector for text using the configured
// embedding model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response had no data")
	}
	return resp.Data[0].Embedding, nil
}

// EmbedBatch embeds multiple texts in a single request.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.embeddingModel),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// cleanMarkdownJSON strips ```json / ``` fences some models wrap their JSON
// output in, mirroring the teacher's cleanMarkdownJSON helper.
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(content, "```json"):
		content = strings.TrimPrefix(content, "```json")
	case strings.HasPrefix(content, "```"):
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSpace(content)
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
