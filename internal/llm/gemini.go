package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiTransport calls Google Gemini. One client is kept per API key.
type GeminiTransport struct {
	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiTransport creates a Gemini transport
func NewGeminiTransport() *GeminiTransport {
	return &GeminiTransport{clients: make(map[string]*genai.Client)}
}

// Complete implements Transport
func (t *GeminiTransport) Complete(ctx context.Context, call Call) (string, error) {
	client, err := t.client(call.APIKey)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(call.Model)
	model.SetTemperature(call.Temperature)
	if call.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(call.MaxTokens))
	}
	if call.JSON {
		model.ResponseMIMEType = "application/json"
	}

	var system []genai.Part
	var parts []genai.Part
	for _, m := range call.Messages {
		if m.Role == RoleSystem {
			system = append(system, genai.Text(m.Content))
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no user content to send")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return extractTextFromResponse(resp)
}

// Close releases every cached client
func (t *GeminiTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var firstErr error
	for key, c := range t.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(t.clients, key)
	}
	return firstErr
}

func (t *GeminiTransport) client(apiKey string) (*genai.Client, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[apiKey]; ok {
		return c, nil
	}
	// Clients outlive the request that created them.
	c, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	t.clients[apiKey] = c
	return c, nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	text := strings.TrimSpace(strings.Join(parts, ""))
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// NewTransport returns the transport for the configured provider
func NewTransport(config *Config) (Transport, error) {
	switch config.Provider {
	case ProviderOpenAI, "":
		return NewOpenAITransport(config.BaseURL, nil), nil
	case ProviderGemini:
		return NewGeminiTransport(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.Provider)
	}
}
