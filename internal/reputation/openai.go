package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/safelink/internal/util"
)

const systemPrompt = `You are a URL reputation service. Given a URL, assess whether it is likely malicious.
Respond with a single JSON object and nothing else:
{"finalVerdict": "malicious" | "suspicious" | "clean",
 "summary": "<one sentence>",
 "checks": {"<check name>": {"status": "ok" | "flagged" | "error", "details": "<short text>"}}}
Only use "malicious" for clear phishing, malware or scam indicators.`

// OpenAIProvider asks a chat model for a verdict in JSON mode
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a new OpenAI-backed provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(config.HTTP, config.timeout(), 0)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "openai",
	}, nil
}

// defaultOllamaURL is the OpenAI-compatible endpoint of a local Ollama
const defaultOllamaURL = "http://localhost:11434/v1"

// NewOllamaProvider creates a provider for a local Ollama model. Ollama
// serves the OpenAI chat API and needs no key.
func NewOllamaProvider(config Config) (*OpenAIProvider, error) {
	if config.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = defaultOllamaURL
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = util.NewHTTPClient(config.HTTP, config.timeout(), 0)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		name:   "ollama",
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Check asks the model for a verdict on rawURL
func (p *OpenAIProvider) Check(ctx context.Context, rawURL string) (*Verdict, error) {
	model := p.config.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout())
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "URL: " + rawURL},
		},
		MaxTokens:   400,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var verdict Verdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if verdict.FinalVerdict == "" {
		return nil, fmt.Errorf("verdict missing finalVerdict")
	}

	return &verdict, nil
}
