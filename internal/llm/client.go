package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Role constants for chat messages
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role-tagged chat message. Roles are passed through as is.
type Message struct {
	Role    string
	Content string
}

// SystemMessage builds a system message
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage builds a user message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// Options tune a single Complete call
type Options struct {
	// JSON asks the provider for a JSON object response.
	JSON bool
}

// Call is one request against one key and one model
type Call struct {
	APIKey      string
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
	JSON        bool
}

// Transport performs a single provider call. It returns the response text or
// an error; empty responses must be reported as errors.
type Transport interface {
	Complete(ctx context.Context, call Call) (string, error)
}

// Result is the outcome of a rotated completion. OK is false when every
// key × model attempt failed; Text is empty in that case.
type Result struct {
	Text     string
	OK       bool
	Attempts int
	Model    string
}

// Completer is implemented by RotatingClient and by test stubs
type Completer interface {
	Complete(ctx context.Context, messages []Message, opts Options) Result
}

// ErrEmptyResponse is returned by transports when the provider sent no text
var ErrEmptyResponse = errors.New("empty response from provider")

// UpstreamError describes a failed call to the provider
type UpstreamError struct {
	Model    string
	KeyIndex int
	Cause    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream call failed (key #%d, model %s): %v", e.KeyIndex, e.Model, e.Cause)
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Attempt is reported to the AttemptHook after every call
type Attempt struct {
	Model    string
	KeyIndex int
	Err      error
}

// AttemptHook observes individual calls, e.g. for metrics
type AttemptHook func(a Attempt)

// RotatingClient spreads completions over a key pool and a model fallback list
type RotatingClient struct {
	pool      *Pool
	transport Transport
	config    *Config
	onAttempt AttemptHook
	onExhaust func()
}

// ClientOption configures a RotatingClient
type ClientOption func(*RotatingClient)

// WithAttemptHook registers a callback invoked after every call
func WithAttemptHook(hook AttemptHook) ClientOption {
	return func(c *RotatingClient) { c.onAttempt = hook }
}

// WithExhaustHook registers a callback invoked when the attempt budget runs out
func WithExhaustHook(hook func()) ClientOption {
	return func(c *RotatingClient) { c.onExhaust = hook }
}

// NewRotatingClient creates a client. A nil config uses DefaultConfig.
func NewRotatingClient(pool *Pool, transport Transport, config *Config, opts ...ClientOption) *RotatingClient {
	if config == nil {
		config = DefaultConfig()
	}
	c := &RotatingClient{
		pool:      pool,
		transport: transport,
		config:    config,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete sends messages to the provider. Keys are drawn 2 × pool size
// times; for every key each model is tried in order. The first non-empty
// answer wins. Failures never escape: an exhausted budget yields OK=false.
func (c *RotatingClient) Complete(ctx context.Context, messages []Message, opts Options) Result {
	draws := 2 * c.pool.Size()
	attempts := 0

	for d := 0; d < draws; d++ {
		keyIndex, key := c.pool.Next()
		for _, model := range c.config.Models {
			if ctx.Err() != nil {
				log.Printf("[LLM] stopping after %d attempts: %v", attempts, ctx.Err())
				return Result{Attempts: attempts}
			}

			attempts++
			text, err := c.call(ctx, Call{
				APIKey:      key,
				Model:       model,
				Messages:    messages,
				Temperature: c.config.Temperature,
				MaxTokens:   c.config.MaxTokens,
				JSON:        opts.JSON,
			})
			if err == nil && text == "" {
				err = ErrEmptyResponse
			}
			if err != nil {
				upErr := &UpstreamError{Model: model, KeyIndex: keyIndex, Cause: err}
				log.Printf("[LLM] attempt %d/%d failed: %v", attempts, draws*len(c.config.Models), upErr)
				c.report(Attempt{Model: model, KeyIndex: keyIndex, Err: upErr})
				continue
			}

			c.report(Attempt{Model: model, KeyIndex: keyIndex})
			return Result{Text: text, OK: true, Attempts: attempts, Model: model}
		}
	}

	if draws > 0 {
		log.Printf("[LLM] all %d attempts failed", attempts)
	}
	if c.onExhaust != nil {
		c.onExhaust()
	}
	return Result{Attempts: attempts}
}

func (c *RotatingClient) call(ctx context.Context, call Call) (text string, err error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transport panic: %v", r)
		}
	}()
	return c.transport.Complete(ctx, call)
}

func (c *RotatingClient) report(a Attempt) {
	if c.onAttempt != nil {
		c.onAttempt(a)
	}
}
