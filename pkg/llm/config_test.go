package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("load from valid file", func(t *testing.T) {
		content := `
base_url: "https://api.example.com/v1"
api_key: "test-api-key"
default_model: "trend"
timeout: "30s"
max_retries: 2
log_level: "info"

models:
  trend:
    provider: "openai"
    model_name: "gpt-4o-mini"
    temperature: 0.2
`
		configPath := filepath.Join(t.TempDir(), "llm.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		require.Equal(t, "https://api.example.com/v1", cfg.BaseURL)
		require.Equal(t, "test-api-key", cfg.APIKey)
		require.Equal(t, "trend", cfg.DefaultModel)
		require.Equal(t, 30*time.Second, cfg.Timeout)
		require.Equal(t, 2, cfg.MaxRetries)

		model, ok := cfg.Model("trend")
		require.True(t, ok)
		require.InDelta(t, 0.2, *model.Temperature, 0.0001)
	})

	t.Run("file not found", func(t *testing.T) {
		_, err := LoadConfig("/nonexistent/path/llm.yaml")
		require.Error(t, err)
		require.Contains(t, err.Error(), "open llm config")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := LoadConfigFromReader(strings.NewReader("api_key: x\n  bad: yaml: here"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "unmarshal llm config")
	})
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv(envAPIKey, "override-key")
	t.Setenv(envTimeout, "45s")
	t.Setenv(envMaxRetries, "5")
	t.Setenv("MODEL_FROM_ENV", "gpt-4o")

	cfg, err := LoadConfigFromReader(strings.NewReader(`
api_key: "ignored"
default_model: "${MODEL_FROM_ENV}"
timeout: "10s"
`))
	require.NoError(t, err)
	require.Equal(t, "override-key", cfg.APIKey)
	require.Equal(t, "gpt-4o", cfg.DefaultModel)
	require.Equal(t, defaultBaseURL, cfg.BaseURL)
	require.Equal(t, 45*time.Second, cfg.Timeout)
	require.Equal(t, 5, cfg.MaxRetries)
	require.Equal(t, defaultLogLevel, cfg.LogLevel)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{BaseURL: "https://x", APIKey: "k", DefaultModel: "m", Timeout: time.Second}
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing key", func(c *Config) { c.APIKey = " " }, "api_key is required"},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "base_url is required"},
		{"missing model", func(c *Config) { c.DefaultModel = "" }, "default_model is required"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout must be positive"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries cannot be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseTimeoutRejectsGarbage(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader(`
api_key: "k"
default_model: "m"
timeout: "soon"
`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid timeout")
}

func TestResolveModelID(t *testing.T) {
	cfg := &Config{
		DefaultModel: "trend",
		Models: map[string]ModelConfig{
			"trend":     {Provider: "openai", ModelName: "gpt-4o-mini"},
			"qualified": {Provider: "openai", ModelName: "deepseek/deepseek-chat"},
			"bare":      {ModelName: "local-model"},
		},
	}
	tests := []struct {
		alias string
		want  string
	}{
		{"", "openai/gpt-4o-mini"},
		{"trend", "openai/gpt-4o-mini"},
		{"qualified", "deepseek/deepseek-chat"},
		{"bare", "local-model"},
		{"unknown-model", "unknown-model"},
		{"google/gemini-2.5-flash", "google/gemini-2.5-flash"},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, _ := cfg.ResolveModelID(tt.alias)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestConfigClone(t *testing.T) {
	orig := &Config{APIKey: "k", Models: map[string]ModelConfig{"a": {ModelName: "x"}}}
	cp := orig.Clone()
	cp.Models["b"] = ModelConfig{}
	cp.APIKey = "changed"
	require.Len(t, orig.Models, 1)
	require.Equal(t, "k", orig.APIKey)
	require.Nil(t, (*Config)(nil).Clone())
}
