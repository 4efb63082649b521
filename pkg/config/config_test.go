package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "doccheck.yaml")

	configData := `
llm:
  provider: "ollama"
  base_url: "http://localhost:11434"
  model: "mistral"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5
  timeout: 10s

index:
  backend: "pgvector"
  url: "postgres://localhost:5432/test"
  table_name: "test_chunks"
  vector_dim: 768
  chunk_size: 500
  top_k: 2
  rate_limit: 1.5

rules:
  jurisdiction:
    - "adgm"

report:
  output_dir: "out"
  marker_prefix: "FLAG"
`
	err := os.WriteFile(configPath, []byte(configData), 0644)
	require.NoError(t, err)

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "http://localhost:11434", config.LLM.BaseURL)
	assert.Equal(t, 1000, config.LLM.MaxTokens)
	assert.Equal(t, 0.5, config.LLM.Temperature)
	assert.Equal(t, 10*time.Second, config.LLM.Timeout)
	assert.Equal(t, "pgvector", config.Index.Backend)
	assert.Equal(t, "test_chunks", config.Index.TableName)
	assert.Equal(t, 500, config.Index.ChunkSize)
	assert.Equal(t, 2, config.Index.TopK)
	assert.Equal(t, []string{"adgm"}, config.Rules.Jurisdiction)
	assert.Equal(t, "FLAG", config.Report.MarkerPrefix)
}

func TestLoadConfigDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "doccheck.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: mistral\n"), 0644))

	config, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "ollama", config.LLM.Provider)
	assert.Equal(t, "memory", config.Index.Backend)
	assert.Equal(t, 1000, config.Index.ChunkSize)
	assert.Equal(t, 3, config.Index.TopK)
	assert.Equal(t, 30*time.Second, config.LLM.Timeout)
	assert.Equal(t, []string{"adgm", "abu dhabi global market"}, config.Rules.Jurisdiction)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedErrs  int
		errorMessages []string
	}{
		{
			name:         "valid config",
			mutate:       func(c *Config) {},
			expectedErrs: 0,
		},
		{
			name: "invalid config",
			mutate: func(c *Config) {
				c.LLM.Provider = "watson"
				c.LLM.MaxTokens = 5000
				c.LLM.Temperature = 3.0
				c.Index.VectorDim = -1
			},
			expectedErrs: 4,
			errorMessages: []string{
				"llm.provider: unknown provider: watson",
				"llm.max_tokens: max_tokens must be between 1 and 4096",
				"llm.temperature: temperature must be between 0 and 2",
				"index.vector_dim: vector_dim must be positive",
			},
		},
		{
			name: "pgvector requires connection string",
			mutate: func(c *Config) {
				c.Index.Backend = "pgvector"
				c.Index.URL = ""
			},
			expectedErrs:  1,
			errorMessages: []string{"index.url: connection string is required"},
		},
		{
			name: "openai requires api key",
			mutate: func(c *Config) {
				c.LLM.Provider = "openai"
				c.LLM.APIKey = ""
			},
			expectedErrs:  1,
			errorMessages: []string{"llm.api_key: OPENAI_API_KEY is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			applyDefaults(config)
			tt.mutate(config)

			errors := config.Validate()
			assert.Len(t, errors, tt.expectedErrs)
			for i, msg := range tt.errorMessages {
				assert.Contains(t, errors[i].Error(), msg)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://env-ollama:11434")
	t.Setenv("DATABASE_URL", "postgres://env-db:5432/test")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	config := &Config{}
	mergeWithEnv(config)

	assert.Equal(t, "http://env-ollama:11434", config.LLM.BaseURL)
	assert.Equal(t, "postgres://env-db:5432/test", config.Index.URL)
	assert.Equal(t, "sk-test", config.LLM.APIKey)
	assert.Equal(t, "openai", config.LLM.Provider)
}
