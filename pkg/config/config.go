package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	EmbedModel  string        `yaml:"embed_model"`
	APIKey      string        `yaml:"-"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type IndexConfig struct {
	Backend   string  `yaml:"backend"`
	URL       string  `yaml:"url"`
	TableName string  `yaml:"table_name"`
	VectorDim int     `yaml:"vector_dim"`
	ChunkSize int     `yaml:"chunk_size"`
	TopK      int     `yaml:"top_k"`
	RateLimit float64 `yaml:"rate_limit"`
}

type RulesConfig struct {
	Jurisdiction []string `yaml:"jurisdiction"`
}

type ReportConfig struct {
	OutputDir    string `yaml:"output_dir"`
	MarkerPrefix string `yaml:"marker_prefix"`
}

type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Index  IndexConfig  `yaml:"index"`
	Rules  RulesConfig  `yaml:"rules"`
	Report ReportConfig `yaml:"report"`
}

// LoadConfig reads the YAML config at path. With an empty path it walks the
// default locations and falls back to built-in defaults. Environment
// variables override file values either way.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		locations := []string{
			"doccheck.yaml",
			"doccheck.yml",
			filepath.Join(os.Getenv("HOME"), ".config/doccheck/config.yaml"),
			"/etc/doccheck/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	mergeWithEnv(config)
	applyDefaults(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.Provider == "" {
		config.LLM.Provider = "ollama"
	}
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "mistral"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text:latest"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.2
	}
	if config.LLM.Timeout == 0 {
		config.LLM.Timeout = 30 * time.Second
	}

	if config.Index.Backend == "" {
		config.Index.Backend = "memory"
	}
	if config.Index.TableName == "" {
		config.Index.TableName = "reference_chunks"
	}
	if config.Index.VectorDim == 0 {
		config.Index.VectorDim = 768
	}
	if config.Index.ChunkSize == 0 {
		config.Index.ChunkSize = 1000
	}
	if config.Index.TopK == 0 {
		config.Index.TopK = 3
	}
	if config.Index.RateLimit == 0 {
		config.Index.RateLimit = 2.0
	}

	if len(config.Rules.Jurisdiction) == 0 {
		config.Rules.Jurisdiction = []string{"adgm", "abu dhabi global market"}
	}

	if config.Report.OutputDir == "" {
		config.Report.OutputDir = "."
	}
	if config.Report.MarkerPrefix == "" {
		config.Report.MarkerPrefix = "REVIEW"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.LLM.APIKey = apiKey
		if config.LLM.Provider == "" {
			config.LLM.Provider = "openai"
		}
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Index.URL = dbURL
	}
}
