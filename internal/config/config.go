// Package config provides configuration loading and validation for the
// career-coach service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the service configuration. It can be loaded from a JSON
// or YAML file and is then overlaid with environment variables. All fields
// are optional; missing values use defaults.
type Config struct {
	// Server
	Port        int      `json:"port,omitempty" yaml:"port,omitempty"`
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
	Debug       bool     `json:"debug,omitempty" yaml:"debug,omitempty"`

	// Storage
	DatabaseURL     string        `json:"database_url,omitempty" yaml:"database_url,omitempty"`         // PostgreSQL connection URL
	CredentialsFile string        `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"` // KEY=value file for runtime credentials
	Resumes         StorageConfig `json:"resume_storage,omitempty" yaml:"resume_storage,omitempty"`     // Object storage for uploaded resumes

	// Model
	APIKey      string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`           // Gemini API key
	LLMProvider string            `json:"llm_provider,omitempty" yaml:"llm_provider,omitempty"` // gemini, genai or adk
	Models      map[string]string `json:"models,omitempty" yaml:"models,omitempty"`             // tier -> model name overrides
	Temperature float64           `json:"temperature,omitempty" yaml:"temperature,omitempty"`
}

// StorageConfig points at an S3-compatible bucket (AWS S3 or Cloudflare R2)
type StorageConfig struct {
	Bucket          string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"` // custom endpoint, e.g. https://<account>.r2.cloudflarestorage.com
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
	Prefix          string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// Enabled reports whether a bucket is configured
func (s StorageConfig) Enabled() bool {
	return s.Bucket != ""
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Port:            8080,
		CredentialsFile: DefaultCredentialsFile,
		LLMProvider:     "gemini",
		Temperature:     0.4,
		Resumes:         StorageConfig{Region: "auto", Prefix: "resumes/"},
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by
// extension (.yaml/.yml are YAML, anything else is JSON).
// Returns an error if the file cannot be read or parsed.
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

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave fields empty so the result can be merged over a file config.
func FromEnv() (Config, error) {
	cfg := Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CredentialsFile: os.Getenv("CREDENTIALS_FILE"),
		APIKey:          os.Getenv("GEMINI_API_KEY"),
		LLMProvider:     os.Getenv("LLM_PROVIDER"),
		Resumes: StorageConfig{
			Bucket:          os.Getenv("RESUME_BUCKET"),
			Region:          os.Getenv("RESUME_BUCKET_REGION"),
			Endpoint:        os.Getenv("RESUME_BUCKET_ENDPOINT"),
			AccessKeyID:     os.Getenv("RESUME_BUCKET_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("RESUME_BUCKET_SECRET_ACCESS_KEY"),
		},
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT: %v", err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535")
	}

	switch c.LLMProvider {
	case "", "gemini", "genai", "adk":
	default:
		return fmt.Errorf("config error: unknown llm_provider %q", c.LLMProvider)
	}

	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config error: 'temperature' must be between 0 and 2")
	}

	for tier := range c.Models {
		switch tier {
		case "lite", "standard", "advanced":
		default:
			return fmt.Errorf("config error: unknown model tier %q", tier)
		}
	}

	if c.Resumes.Enabled() {
		if (c.Resumes.AccessKeyID == "") != (c.Resumes.SecretAccessKey == "") {
			return fmt.Errorf("config error: resume storage needs both access_key_id and secret_access_key")
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from
// defaults. It is applied twice at startup: env over file, then the result
// over Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.CredentialsFile == "" {
		result.CredentialsFile = defaults.CredentialsFile
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LLMProvider == "" {
		result.LLMProvider = defaults.LLMProvider
	}

	// Int and float fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}

	if len(result.CORSOrigins) == 0 {
		result.CORSOrigins = defaults.CORSOrigins
	}

	// Model overrides merge per tier
	if len(defaults.Models) > 0 {
		merged := make(map[string]string, len(defaults.Models)+len(result.Models))
		for k, v := range defaults.Models {
			merged[k] = v
		}
		for k, v := range result.Models {
			merged[k] = v
		}
		result.Models = merged
	}

	result.Resumes = result.Resumes.mergeWithDefaults(defaults.Resumes)

	// Bool fields: cannot distinguish unset from false, so either source enables
	result.Debug = result.Debug || defaults.Debug

	return result
}

func (s StorageConfig) mergeWithDefaults(defaults StorageConfig) StorageConfig {
	if s.Bucket == "" {
		s.Bucket = defaults.Bucket
	}
	if s.Region == "" {
		s.Region = defaults.Region
	}
	if s.Endpoint == "" {
		s.Endpoint = defaults.Endpoint
	}
	if s.AccessKeyID == "" {
		s.AccessKeyID = defaults.AccessKeyID
	}
	if s.SecretAccessKey == "" {
		s.SecretAccessKey = defaults.SecretAccessKey
	}
	if s.Prefix == "" {
		s.Prefix = defaults.Prefix
	}
	return s
}
