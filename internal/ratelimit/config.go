package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Action names used by the bot and the HTTP server
const (
	ActionGenerate = "generate"
	ActionHTTP     = "http"
)

// Rule limits one action. HTTP rules use the request path as the action and
// a trailing "/" matches by prefix.
type Rule struct {
	Action string
	Limit  int           // Maximum events per window; <= 0 means unlimited
	Window time.Duration
	Burst  int // Bucket capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept
	IdleTTL   time.Duration
	Whitelist map[string]bool
	Blacklist map[string]bool
	Rules     []Rule
}

// DefaultConfig allows 300 requests a minute per client and generatePerHour
// document generations per user
func DefaultConfig(generatePerHour int) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    300,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		Rules:           DefaultRules(generatePerHour),
	}
}

// DefaultRules returns the built-in rules
func DefaultRules(generatePerHour int) []Rule {
	return []Rule{
		// Expensive: each one drives many completion calls
		{Action: ActionGenerate, Limit: generatePerHour, Window: time.Hour, Burst: 3},

		// Admin API
		{Action: "/admin/", Limit: 60, Window: time.Minute, Burst: 10},

		// Probes and scraping are unlimited
		{Action: "/health", Limit: 0},
		{Action: "/metrics", Limit: 0},
	}
}

// LoadConfig loads rate limiting configuration from environment variables
func LoadConfig(generatePerHour int) *Config {
	if !getEnvBool("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	cfg := DefaultConfig(generatePerHour)
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	cfg.Whitelist = parseList(os.Getenv("RATE_LIMIT_WHITELIST"))
	cfg.Blacklist = parseList(os.Getenv("RATE_LIMIT_BLACKLIST"))
	return cfg
}

// MatchRule returns the rule for action, or nil. Exact matches win over
// prefix matches.
func MatchRule(action string, rules []Rule) *Rule {
	for i := range rules {
		if rules[i].Action == action {
			return &rules[i]
		}
	}
	for i := range rules {
		r := &rules[i]
		if strings.HasSuffix(r.Action, "/") && strings.HasPrefix(action, r.Action) {
			return r
		}
	}
	return nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseList parses a comma-separated list of client IDs (IPs or Telegram IDs)
func parseList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result[item] = true
		}
	}
	return result
}
