package llm

import (
	"context"
	"fmt"
	"strings"

	genaisdk "google.golang.org/genai"
)

// GenAIClient implements Client on top of the unified Google GenAI SDK.
type GenAIClient struct {
	client *genaisdk.Client
	config *Config
}

// NewGenAIClient creates a client for the Gemini Developer API.
func NewGenAIClient(ctx context.Context, config *Config, apiKey string) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genaisdk.NewClient(ctx, &genaisdk.ClientConfig{
		APIKey:  apiKey,
		Backend: genaisdk.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{client: client, config: config}, nil
}

// GenerateContent generates text content using the specified model tier
func (c *GenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.generate(ctx, Request{Prompt: prompt, Tier: tier}, "")
}

// GenerateJSON generates JSON content, attaching any inline media
func (c *GenAIClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	text, err := c.generate(ctx, req, "application/json")
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *GenAIClient) generate(ctx context.Context, req Request, mimeType string) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	contents := []*genaisdk.Content{genaisdk.NewContentFromParts(buildGenAIParts(req), genaisdk.RoleUser)}
	cfg := &genaisdk.GenerateContentConfig{
		Temperature:      genaisdk.Ptr(c.config.Temperature),
		ResponseMIMEType: mimeType,
	}

	resp, err := c.client.Models.GenerateContent(ctx, modelName, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("no text parts in response")
	}
	return text, nil
}

// GetModel returns the model name for a tier
func (c *GenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the GenAI SDK holds no long-lived resources.
func (c *GenAIClient) Close() error {
	return nil
}

func buildGenAIParts(req Request) []*genaisdk.Part {
	parts := []*genaisdk.Part{genaisdk.NewPartFromText(req.Prompt)}
	for _, m := range req.Media {
		parts = append(parts, genaisdk.NewPartFromBytes(m.Data, m.MIMEType))
	}
	return parts
}
