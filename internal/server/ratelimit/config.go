package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a group of endpoints.
// Requests matching the same EndpointConfig share one bucket per client, so
// every flow draws from a single flow budget.
type EndpointConfig struct {
	Name   string        // Tier name, used as the bucket key and in logs
	Path   string        // Endpoint path pattern (a trailing "/" makes it a prefix)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig reads RATE_LIMIT_* environment variables. Unparseable values
// fall back to the defaults.
func LoadConfig() *Config {
	if !envOr("RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr("RATE_LIMIT_DEFAULT_LIMIT", 1000, strconv.Atoi),
		DefaultWindow:   envOr("RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: envOr("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv("RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(
			envOr("RATE_LIMIT_FLOWS_PER_HOUR", 30, strconv.Atoi),
			envOr("RATE_LIMIT_AUTH_PER_MINUTE", 20, strconv.Atoi),
		),
	}
}

// DefaultEndpointConfigs returns the endpoint tiers. Model-backed endpoints
// are the most expensive and share an hourly budget; credential-handling
// writes get a per-minute budget.
func DefaultEndpointConfigs(flowsPerHour, authPerMinute int) []EndpointConfig {
	flows := func(path, method string) EndpointConfig {
		return EndpointConfig{Name: "flows", Path: path, Method: method, Limit: flowsPerHour, Window: time.Hour, Burst: 5}
	}
	auth := func(path, method string) EndpointConfig {
		return EndpointConfig{Name: "auth", Path: path, Method: method, Limit: authPerMinute, Window: time.Minute, Burst: 5}
	}

	return []EndpointConfig{
		// Tier 1: model calls
		flows("/flows/", "POST"),
		flows("/market", "GET"),

		// Tier 2: credential and account writes
		auth("/auth/register", "POST"),
		auth("/auth/login", "POST"),
		auth("/auth/password", "PUT"),
		auth("/auth/password-reset", "POST"),
		auth("/auth/password-reset/confirm", "POST"),
		auth("/settings/credentials", "PUT"),

		// Tier 3: upstream job search
		{Name: "jobs", Path: "/jobs", Method: "GET", Limit: 120, Window: time.Hour, Burst: 10},

		// Tier 4: everything else uses the default limit; /health is unlimited
	}
}

// envOr parses the variable key with parse, returning def when it is unset
// or invalid.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

// parseIPList turns a comma-separated list into a set, skipping blanks.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for ip := range strings.SplitSeq(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
