// Package llm provides the completion client used by the generation pipeline.
// A RotatingClient spreads calls over a pool of API keys and an ordered list
// of fallback models, and reports a typed Result instead of an error.
package llm

import (
	"fmt"
	"time"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderOpenAI is any OpenAI-compatible chat completions endpoint (Groq by default)
	ProviderOpenAI Provider = "openai"
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Config holds the completion settings shared by every call
type Config struct {
	Provider    Provider
	BaseURL     string
	Models      []string
	Temperature float32
	MaxTokens   int
	// Timeout bounds a single credential × model call. Zero means no limit.
	Timeout time.Duration
}

// DefaultConfig returns the default configuration (Groq via the OpenAI API)
func DefaultConfig() *Config {
	return &Config{
		Provider:    ProviderOpenAI,
		BaseURL:     DefaultBaseURL,
		Models:      []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"},
		Temperature: 0.7,
		MaxTokens:   1500,
		Timeout:     90 * time.Second,
	}
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider:    ProviderGemini,
		Models:      []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"},
		Temperature: 0.7,
		MaxTokens:   1500,
		Timeout:     90 * time.Second,
	}
}

// Validate checks that the configuration can drive a client
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.Provider)
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model is required")
	}
	for i, m := range c.Models {
		if m == "" {
			return fmt.Errorf("model at position %d is empty", i)
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// WithModels returns a copy of the config using the given model order
func (c *Config) WithModels(models ...string) *Config {
	newConfig := *c
	newConfig.Models = append([]string(nil), models...)
	return &newConfig
}
