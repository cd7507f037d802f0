package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, ProviderOpenAI, config.Provider)
	assert.Equal(t, DefaultBaseURL, config.BaseURL)
	assert.Equal(t, []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}, config.Models)
	assert.InDelta(t, 0.7, config.Temperature, 0.0001)
	assert.Equal(t, 1500, config.MaxTokens)
	require.NoError(t, config.Validate())
}

func TestDefaultGeminiConfig(t *testing.T) {
	config := DefaultGeminiConfig()

	assert.Equal(t, ProviderGemini, config.Provider)
	assert.NotEmpty(t, config.Models)
	require.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"unknown provider", func(c *Config) { c.Provider = "anthropic" }, "unsupported llm provider"},
		{"no models", func(c *Config) { c.Models = nil }, "at least one model"},
		{"empty model", func(c *Config) { c.Models = []string{"a", ""} }, "position 1"},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, "temperature"},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max tokens"},
		{"negative timeout", func(c *Config) { c.Timeout = -1 }, "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWithModels(t *testing.T) {
	config := DefaultConfig()
	newConfig := config.WithModels("custom-model")

	// Original should be unchanged
	assert.Equal(t, "llama-3.3-70b-versatile", config.Models[0])
	assert.Equal(t, []string{"custom-model"}, newConfig.Models)
	assert.Equal(t, config.BaseURL, newConfig.BaseURL)
}

func TestProviderConstants(t *testing.T) {
	assert.Equal(t, Provider("openai"), ProviderOpenAI)
	assert.Equal(t, Provider("gemini"), ProviderGemini)
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(DefaultConfig())
	require.NoError(t, err)
	assert.IsType(t, &OpenAITransport{}, tr)

	tr, err = NewTransport(DefaultGeminiConfig())
	require.NoError(t, err)
	assert.IsType(t, &GeminiTransport{}, tr)

	_, err = NewTransport(&Config{Provider: "other"})
	assert.Error(t, err)
}
