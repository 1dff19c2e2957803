package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ValidJSON(t *testing.T) {
	// Create temp config file
	content := `{
		"port": 9090,
		"database_url": "postgres://localhost/career",
		"llm_provider": "genai",
		"models": {"advanced": "gemini-2.5-pro"},
		"resume_storage": {"bucket": "resumes", "endpoint": "https://acct.r2.cloudflarestorage.com"},
		"debug": true
	}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "postgres://localhost/career", cfg.DatabaseURL)
	assert.Equal(t, "genai", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.Models["advanced"])
	assert.Equal(t, "resumes", cfg.Resumes.Bucket)
	assert.True(t, cfg.Resumes.Enabled())
	assert.True(t, cfg.Debug)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := `
port: 7070
llm_provider: adk
credentials_file: /etc/career/.env.local
cors_origins:
  - https://coach.example.com
models:
  lite: gemini-2.5-flash-lite
resume_storage:
  bucket: uploads
  region: us-east-1
  prefix: cv/
`
	tmpFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0644))

	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "adk", cfg.LLMProvider)
	assert.Equal(t, "/etc/career/.env.local", cfg.CredentialsFile)
	assert.Equal(t, []string{"https://coach.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Models["lite"])
	assert.Equal(t, "us-east-1", cfg.Resumes.Region)
	assert.Equal(t, "cv/", cfg.Resumes.Prefix)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	content := `{ invalid json }`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(content), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(tmpFile, []byte("port: [unterminated"), 0644))

	cfg, err := LoadConfig(tmpFile)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("GEMINI_API_KEY", "gk")
	t.Setenv("LLM_PROVIDER", "genai")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RESUME_BUCKET", "bucket")
	t.Setenv("CREDENTIALS_FILE", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseURL)
	assert.Equal(t, "gk", cfg.APIKey)
	assert.Equal(t, "genai", cfg.LLMProvider)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.Equal(t, "bucket", cfg.Resumes.Bucket)
	assert.Empty(t, cfg.CredentialsFile)
}

func TestFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "http")

	_, err := FromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Defaults()},
		{name: "port out of range", cfg: Config{Port: 70000}, wantErr: "port"},
		{name: "unknown provider", cfg: Config{LLMProvider: "openai"}, wantErr: "llm_provider"},
		{name: "temperature too high", cfg: Config{Temperature: 3}, wantErr: "temperature"},
		{name: "unknown tier", cfg: Config{Models: map[string]string{"huge": "x"}}, wantErr: "model tier"},
		{
			name:    "half a storage key pair",
			cfg:     Config{Resumes: StorageConfig{Bucket: "b", AccessKeyID: "id"}},
			wantErr: "secret_access_key",
		},
		{
			name: "storage with ambient credentials",
			cfg:  Config{Resumes: StorageConfig{Bucket: "b", Region: "us-east-1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Defaults()
	defaults.Models = map[string]string{"lite": "default-lite", "advanced": "default-advanced"}

	partial := Config{
		Port:    9000,
		APIKey:  "custom-key",
		Models:  map[string]string{"advanced": "custom-advanced"},
		Resumes: StorageConfig{Bucket: "uploads"},
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, 9000, merged.Port)
	assert.Equal(t, "custom-key", merged.APIKey)
	assert.Equal(t, "custom-advanced", merged.Models["advanced"])
	assert.Equal(t, "uploads", merged.Resumes.Bucket)

	// Default values should fill in empty fields
	assert.Equal(t, "default-lite", merged.Models["lite"])
	assert.Equal(t, DefaultCredentialsFile, merged.CredentialsFile)
	assert.Equal(t, "gemini", merged.LLMProvider)
	assert.Equal(t, 0.4, merged.Temperature)
	assert.Equal(t, "auto", merged.Resumes.Region)
	assert.Equal(t, "resumes/", merged.Resumes.Prefix)

	// The receiver is not modified
	assert.Equal(t, "custom-advanced", partial.Models["advanced"])
	assert.Empty(t, partial.Resumes.Region)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{
		Port:   8081,
		APIKey: "key",
	}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, 8081, merged.Port)
	assert.Equal(t, "key", merged.APIKey)
	assert.Nil(t, merged.Models)
}
