// Package config provides configuration loading and validation for the bot
// and the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/referat-bot/internal/llm"
	"github.com/jonathan/referat-bot/internal/schemas"
)

// LLMConfig selects the completion provider and credentials
type LLMConfig struct {
	Provider    string   `json:"provider,omitempty" validate:"omitempty,oneof=openai gemini"`
	BaseURL     string   `json:"base_url,omitempty" validate:"omitempty,url"`
	Keys        []string `json:"keys,omitempty"`
	Models      []string `json:"models,omitempty"`
	Temperature float32  `json:"temperature,omitempty" validate:"gte=0,lte=2"`
	MaxTokens   int      `json:"max_tokens,omitempty" validate:"gte=0"`
	Timeout     string   `json:"timeout,omitempty"`
}

// Config is the service configuration. It can be loaded from a JSON file,
// merged with defaults and overridden by environment variables.
type Config struct {
	// Telegram
	BotToken      string `json:"bot_token,omitempty"`
	AdminID       int64  `json:"admin_id,omitempty" validate:"gte=0"` // Super admin Telegram ID
	AdminUsername string `json:"admin_username,omitempty"`
	BotUsername   string `json:"bot_username,omitempty"`
	CardNumber    string `json:"card_number,omitempty"` // Card shown on the payment screen

	// Storage
	DatabaseURL string `json:"database_url,omitempty"`
	RedisURL    string `json:"redis_url,omitempty"` // Empty keeps sessions in memory

	// HTTP
	Port int `json:"port,omitempty" validate:"gte=0,lte=65535"`

	// Generation
	PDFEnabled               bool    `json:"pdf_enabled,omitempty"`
	MaxConcurrentGenerations int     `json:"max_concurrent_generations,omitempty" validate:"gte=0"`
	GenerationTimeout        string  `json:"generation_timeout,omitempty"`
	GenerationRatePerHour    int     `json:"generation_rate_per_hour,omitempty" validate:"gte=0"`
	SectionConcurrency       int     `json:"section_concurrency,omitempty" validate:"gte=0"`
	BroadcastPerSecond       float64 `json:"broadcast_per_second,omitempty" validate:"gte=0"`

	LLM    LLMConfig    `json:"llm,omitempty"`
	Sizing SizingConfig `json:"sizing,omitempty"`
}

// Defaults returns the built-in configuration. Model defaults depend on the
// provider and are filled in by LLMClientConfig.
func Defaults() Config {
	return Config{
		AdminUsername:            "admin",
		BotUsername:              "bot",
		CardNumber:               "8600 0000 0000 0000",
		Port:                     8000,
		MaxConcurrentGenerations: 4,
		GenerationTimeout:        "10m",
		GenerationRatePerHour:    10,
		SectionConcurrency:       1,
		BroadcastPerSecond:       20,
		LLM: LLMConfig{
			Provider: string(llm.ProviderOpenAI),
		},
	}
}

// LoadConfig loads configuration from a JSON file. The file is checked
// against the config schema before it is decoded.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("failed to parse config JSON: invalid syntax in %s", path)
	}
	if err := schemas.ValidateJSONString(schemas.ConfigSchema(), string(data)); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.BotToken == "" {
		result.BotToken = defaults.BotToken
	}
	if result.AdminUsername == "" {
		result.AdminUsername = defaults.AdminUsername
	}
	if result.BotUsername == "" {
		result.BotUsername = defaults.BotUsername
	}
	if result.CardNumber == "" {
		result.CardNumber = defaults.CardNumber
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.GenerationTimeout == "" {
		result.GenerationTimeout = defaults.GenerationTimeout
	}

	// Numeric fields: use default if zero
	if result.AdminID == 0 {
		result.AdminID = defaults.AdminID
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxConcurrentGenerations == 0 {
		result.MaxConcurrentGenerations = defaults.MaxConcurrentGenerations
	}
	if result.GenerationRatePerHour == 0 {
		result.GenerationRatePerHour = defaults.GenerationRatePerHour
	}
	if result.SectionConcurrency == 0 {
		result.SectionConcurrency = defaults.SectionConcurrency
	}
	if result.BroadcastPerSecond == 0 {
		result.BroadcastPerSecond = defaults.BroadcastPerSecond
	}

	// LLM block
	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if len(result.LLM.Keys) == 0 {
		result.LLM.Keys = defaults.LLM.Keys
	}
	if len(result.LLM.Models) == 0 {
		result.LLM.Models = defaults.LLM.Models
	}
	if result.LLM.Temperature == 0 {
		result.LLM.Temperature = defaults.LLM.Temperature
	}
	if result.LLM.MaxTokens == 0 {
		result.LLM.MaxTokens = defaults.LLM.MaxTokens
	}
	if result.LLM.Timeout == "" {
		result.LLM.Timeout = defaults.LLM.Timeout
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (environment and CLI flags win for bools)

	return result
}

// ApplyEnv overrides fields from environment variables read through getenv.
// Unset variables leave the field untouched.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = n
		}
		return nil
	}

	setString("BOT_TOKEN", &c.BotToken)
	setString("ADMIN_USERNAME", &c.AdminUsername)
	setString("BOT_USERNAME", &c.BotUsername)
	setString("KARTA_RAQAMI", &c.CardNumber)
	setString("DATABASE_URL", &c.DatabaseURL)
	setString("REDIS_URL", &c.RedisURL)
	setString("GENERATION_TIMEOUT", &c.GenerationTimeout)
	setString("LLM_PROVIDER", &c.LLM.Provider)
	setString("LLM_BASE_URL", &c.LLM.BaseURL)

	if v := strings.TrimSpace(getenv("ADMIN_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ADMIN_ID: %w", err)
		}
		c.AdminID = id
	}
	for key, dst := range map[string]*int{
		"PORT":                       &c.Port,
		"MAX_CONCURRENT_GENERATIONS": &c.MaxConcurrentGenerations,
		"GENERATION_RATE_PER_HOUR":   &c.GenerationRatePerHour,
		"SECTION_CONCURRENCY":        &c.SectionConcurrency,
		"SLIDE_WORDS":                &c.Sizing.SlideWords,
		"CHAPTER_WORDS":              &c.Sizing.ChapterWords,
	} {
		if err := setInt(key, dst); err != nil {
			return err
		}
	}
	if v := strings.TrimSpace(getenv("PAGES_PER_CHAPTER")); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid PAGES_PER_CHAPTER: %w", err)
		}
		c.Sizing.PagesPerChapter = f
	}
	if v := strings.TrimSpace(getenv("PDF_ENABLED")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid PDF_ENABLED: %w", err)
		}
		c.PDFEnabled = b
	}

	if keys := llm.ParseKeys(getenv("GROQ_KEYS")); len(keys) > 0 {
		c.LLM.Keys = keys
	}
	if key := strings.TrimSpace(getenv("GEMINI_API_KEY")); key != "" && c.LLM.Provider == string(llm.ProviderGemini) && len(c.LLM.Keys) == 0 {
		c.LLM.Keys = []string{key}
	}
	if models := llm.ParseKeys(getenv("LLM_MODELS")); len(models) > 0 {
		c.LLM.Models = models
	}
	return nil
}

var validate = validator.New()

// Validate checks that the configuration has valid values.
// Required fields depend on the command and are checked by RequireBot.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("config error: invalid llm timeout %q: %w", c.LLM.Timeout, err)
		}
	}
	return nil
}

// RequireBot checks the fields the Telegram bot cannot run without
func (c *Config) RequireBot() error {
	if c.BotToken == "" {
		return fmt.Errorf("config error: BOT_TOKEN is required")
	}
	if c.AdminID == 0 {
		return fmt.Errorf("config error: ADMIN_ID is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	return nil
}

// Timeout returns the per-generation timeout; zero means none
func (c *Config) Timeout() (time.Duration, error) {
	if c.GenerationTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.GenerationTimeout)
	if err != nil {
		return 0, fmt.Errorf("config error: invalid generation_timeout %q: %w", c.GenerationTimeout, err)
	}
	return d, nil
}

// LLMClientConfig converts the LLM block into a completion client config
func (c *Config) LLMClientConfig() (*llm.Config, error) {
	cfg := llm.DefaultConfig()
	if c.LLM.Provider == string(llm.ProviderGemini) {
		cfg = llm.DefaultGeminiConfig()
	}
	if c.LLM.Provider != "" {
		cfg.Provider = llm.Provider(c.LLM.Provider)
	}
	if c.LLM.BaseURL != "" && cfg.Provider == llm.ProviderOpenAI {
		cfg.BaseURL = c.LLM.BaseURL
	}
	if len(c.LLM.Models) > 0 {
		cfg = cfg.WithModels(c.LLM.Models...)
	}
	if c.LLM.Temperature > 0 {
		cfg.Temperature = c.LLM.Temperature
	}
	if c.LLM.MaxTokens > 0 {
		cfg.MaxTokens = c.LLM.MaxTokens
	}
	if c.LLM.Timeout != "" {
		d, err := time.ParseDuration(c.LLM.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
