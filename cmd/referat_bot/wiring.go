package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jonathan/referat-bot/internal/config"
	"github.com/jonathan/referat-bot/internal/generation"
	"github.com/jonathan/referat-bot/internal/llm"
	"github.com/jonathan/referat-bot/internal/observability"
	"github.com/jonathan/referat-bot/internal/pipeline"
	"github.com/jonathan/referat-bot/internal/rendering"
	"github.com/jonathan/referat-bot/internal/session"
)

// loadConfig reads the optional config file, fills defaults and applies the
// environment on top
func loadConfig(path string, getenv func(string) string) (*config.Config, error) {
	var cfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.ApplyEnv(getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// buildRunner wires the completion client, planner and renderer. The
// returned func releases the transport.
func buildRunner(cfg *config.Config) (*pipeline.Runner, func(), error) {
	if len(cfg.LLM.Keys) == 0 {
		return nil, nil, fmt.Errorf("no LLM keys configured: set GROQ_KEYS (or GEMINI_API_KEY with LLM_PROVIDER=gemini)")
	}

	llmCfg, err := cfg.LLMClientConfig()
	if err != nil {
		return nil, nil, err
	}
	transport, err := llm.NewTransport(llmCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM transport: %w", err)
	}
	pool := llm.NewPool(cfg.LLM.Keys, nil)
	client := llm.NewRotatingClient(pool, transport, llmCfg, observability.ClientOptions()...)
	log.Printf("[LLM] %s provider with %d keys, models %v", llmCfg.Provider, pool.Size(), llmCfg.Models)

	planner := generation.NewPlanner(client,
		generation.WithSizing(cfg.PlannerSizing()),
		generation.WithHooks(observability.PlannerHooks()),
	)

	release := func() {
		if c, ok := transport.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Printf("[LLM] failed to close transport: %v", err)
			}
		}
	}
	return pipeline.NewRunner(planner, rendering.NewRenderer()), release, nil
}

// openSessions uses Redis when a URL is configured and memory otherwise
func openSessions(ctx context.Context, redisURL string) (session.Store, func(), error) {
	if redisURL == "" {
		log.Println("[BOT] keeping sessions in memory")
		return session.NewMemoryStore(session.DefaultTTL), func() {}, nil
	}
	store, err := session.NewRedisStore(ctx, redisURL, session.DefaultTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Println("[BOT] keeping sessions in redis")
	return store, func() { _ = store.Close() }, nil
}

// verboseOut is where verbose CLI output goes
var verboseOut io.Writer = os.Stdout
