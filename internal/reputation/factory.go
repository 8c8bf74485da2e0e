package reputation

import (
	"fmt"
	"strings"

	"github.com/ppiankov/safelink/internal/model"
)

// NewProvider creates a reputation provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "http":
		return NewHTTPProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "anthropic":
		return NewAnthropicProvider(config)

	case "":
		// No provider configured: external checks are disabled
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown reputation provider: %s (supported: http, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config to a provider config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider: cfg.Reputation.Provider,
		BaseURL:  cfg.Reputation.BaseURL,
		APIKey:   cfg.Reputation.APIKey,
		Model:    cfg.Reputation.Model,
		Timeout:  cfg.Reputation.Timeout,
		HTTP:     cfg.HTTP,
	}
}
