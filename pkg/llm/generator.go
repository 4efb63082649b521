package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// GeneratorConfig configures the text-generation client.
type GeneratorConfig struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Generator sends compliance-review prompts to the generation service. A
// call that outlives the configured timeout is abandoned; callers treat that
// the same as any other service failure.
type Generator struct {
	config GeneratorConfig
	llm    llms.Model
}

func NewGenerator(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.Temperature == 0 {
		config.Temperature = 0.2
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	var model llms.Model
	var err error
	switch config.Provider {
	case "openai":
		model, err = openai.New(
			openai.WithToken(config.APIKey),
			openai.WithModel(config.Model),
		)
	default:
		model, err = ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.BaseURL),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}

	return &Generator{config: config, llm: model}, nil
}

// Generate sends a single prompt and returns the raw response text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt,
		llms.WithTemperature(g.config.Temperature),
		llms.WithMaxTokens(g.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("generation call failed: %w", err)
	}
	return out, nil
}
