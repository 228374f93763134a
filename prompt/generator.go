// Package prompt holds the prompting side of the pipeline: an LLM text
// generator, one prompt builder per technique and the response parser.
package prompt

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/relgraph/releval/helper"
)

// Generator produces a model response for a prompt. Implemented by
// LLMGenerator for real providers and by test stubs.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider selects the LLM backend
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// GeneratorConfiguration holds the provider selection and credentials for
// the LLM backend
type GeneratorConfiguration struct {
	Provider  Provider
	Model     string
	APIKey    string
	ServerURL string
}

// NewGeneratorConfiguration reads the generator configuration from the
// environment (RELEVAL_LLM_PROVIDER, RELEVAL_LLM_MODEL, RELEVAL_LLM_API_KEY,
// RELEVAL_LLM_SERVER_URL), loading a .env file first if present.
func NewGeneratorConfiguration() (*GeneratorConfiguration, error) {
	_ = godotenv.Load()

	config := &GeneratorConfiguration{
		Provider:  Provider(os.Getenv("RELEVAL_LLM_PROVIDER")),
		Model:     os.Getenv("RELEVAL_LLM_MODEL"),
		APIKey:    os.Getenv("RELEVAL_LLM_API_KEY"),
		ServerURL: os.Getenv("RELEVAL_LLM_SERVER_URL"),
	}
	if config.Provider == "" {
		config.Provider = ProviderOllama
	}
	if config.Model == "" {
		return nil, helper.NewError("NewGeneratorConfiguration", fmt.Errorf("RELEVAL_LLM_MODEL not set"))
	}
	return config, nil
}

// LLMGenerator wraps a langchaingo model for single-prompt generation
type LLMGenerator struct {
	llm       llms.Model
	modelName string
}

// NewGenerator creates a generator for the configured provider.
func NewGenerator(config *GeneratorConfiguration) (*LLMGenerator, error) {
	var model llms.Model
	var err error

	switch config.Provider {
	case ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(config.Model),
			ollama.WithServerURL(config.ServerURL),
		)
		if err != nil {
			return nil, helper.NewError("NewGenerator create ollama model", err)
		}
	case ProviderOpenAI:
		if config.APIKey == "" {
			return nil, helper.NewError("NewGenerator", fmt.Errorf("openai api key required"))
		}
		model, err = openai.New(
			openai.WithToken(config.APIKey),
			openai.WithModel(config.Model),
		)
		if err != nil {
			return nil, helper.NewError("NewGenerator create openai model", err)
		}
	case ProviderAnthropic:
		if config.APIKey == "" {
			return nil, helper.NewError("NewGenerator", fmt.Errorf("anthropic api key required"))
		}
		model, err = anthropic.New(
			anthropic.WithToken(config.APIKey),
			anthropic.WithModel(config.Model),
		)
		if err != nil {
			return nil, helper.NewError("NewGenerator create anthropic model", err)
		}
	default:
		return nil, helper.NewError("NewGenerator", fmt.Errorf("unsupported llm provider: %s", config.Provider))
	}

	return &LLMGenerator{llm: model, modelName: config.Model}, nil
}

// Generate produces a completion for a single prompt.
func (g *LLMGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	response, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt)
	if err != nil {
		return "", helper.NewError("Generate", err)
	}
	return response, nil
}

// Model returns the configured model name
func (g *LLMGenerator) Model() string {
	return g.modelName
}
