// Package llm wraps the model providers behind one Client interface and maps
// model tiers to provider model names.
package llm

import (
	"fmt"
	"maps"
)

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, short generation
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: structured output, guidance
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: document analysis, reports
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM backends
const (
	// ProviderGemini is Google Gemini through the generative-ai-go SDK
	ProviderGemini Provider = "gemini"
	// ProviderGenAI is Google Gemini through the unified google.golang.org/genai SDK
	ProviderGenAI Provider = "genai"
	// ProviderADK runs each request through a single-turn ADK agent
	ProviderADK Provider = "adk"
)

// ParseProvider converts a configuration string into a Provider.
// An empty string selects the default provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case "":
		return ProviderGemini, nil
	case ProviderGemini, ProviderGenAI, ProviderADK:
		return Provider(s), nil
	default:
		return "", fmt.Errorf("unknown LLM provider %q", s)
	}
}

// Config holds the model configuration for the application
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.4,
	}
}

// GetModel returns the model name for tier. A tier without its own model
// falls back to the standard model, then the lite one; "" means nothing is
// configured.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model, ok := c.Models[t]; ok {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c that uses model for tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := c.clone()
	out.Models[tier] = model
	return out
}

// WithProvider returns a copy of c that uses provider p
func (c *Config) WithProvider(p Provider) *Config {
	out := c.clone()
	out.Provider = p
	return out
}

func (c *Config) clone() *Config {
	out := *c
	out.Models = maps.Clone(c.Models)
	if out.Models == nil {
		out.Models = make(map[ModelTier]string)
	}
	return &out
}
