package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITransport calls an OpenAI-compatible chat completions endpoint.
// One client is kept per API key.
type OpenAITransport struct {
	baseURL    string
	httpClient *http.Client

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAITransport creates a transport. An empty baseURL uses DefaultBaseURL
// and a nil httpClient uses the library default.
func NewOpenAITransport(baseURL string, httpClient *http.Client) *OpenAITransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAITransport{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		clients:    make(map[string]*openai.Client),
	}
}

// Complete implements Transport
func (t *OpenAITransport) Complete(ctx context.Context, call Call) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       call.Model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(call.Messages)),
		Temperature: call.Temperature,
		MaxTokens:   call.MaxTokens,
	}
	for _, m := range call.Messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	if call.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := t.client(call.APIKey).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (t *OpenAITransport) client(apiKey string) *openai.Client {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.clients[apiKey]; ok {
		return c
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = t.baseURL
	if t.httpClient != nil {
		cfg.HTTPClient = t.httpClient
	}
	c := openai.NewClientWithConfig(cfg)
	t.clients[apiKey] = c
	return c
}
