package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

const (
	// Ollama ignores the key but the SDK requires one.
	ollamaPlaceholderKey   = "ollama"
	defaultAzureAPIVersion = "2024-10-21"
)

// openAIProvider serves every backend that speaks the chat completions wire
// format: Ollama, OpenAI, OpenRouter, DeepSeek, SiliconFlow and Azure.
type openAIProvider struct {
	id     registry.ID
	client openai.Client
	model  string
}

func newOpenAIProvider(id registry.ID, model string, o options, reqOpts ...option.RequestOption) *openAIProvider {
	opts := []option.RequestOption{
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	}
	opts = append(opts, reqOpts...)
	return &openAIProvider{
		id:     id,
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func newOpenAICompatProvider(cfg config.ProviderConfig, o options) *openAIProvider {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL := resolveBaseURL(cfg); baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return newOpenAIProvider(cfg.Provider, resolveModel(cfg), o, reqOpts...)
}

// newOllamaProvider targets Ollama's OpenAI-compatible endpoint under /v1.
func newOllamaProvider(cfg config.ProviderConfig, o options) *openAIProvider {
	baseURL := resolveBaseURL(cfg) + "/v1"
	return newOpenAIProvider(registry.Ollama, resolveModel(cfg), o,
		option.WithBaseURL(baseURL),
		option.WithAPIKey(ollamaPlaceholderKey),
	)
}

// newAzureProvider addresses https://<resource>.openai.azure.com; the model
// name doubles as the deployment name.
func newAzureProvider(cfg config.ProviderConfig, o options) *openAIProvider {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.openai.azure.com", cfg.ResourceName)
	}
	version := strings.TrimSpace(cfg.APIVersion)
	if version == "" {
		version = defaultAzureAPIVersion
	}
	return newOpenAIProvider(registry.Azure, resolveModel(cfg), o,
		azure.WithEndpoint(endpoint, version),
		azure.WithAPIKey(cfg.APIKey),
		// The SDK defaults read OPENAI_* from the process env; none of it is for Azure.
		option.WithHeaderDel("Authorization"),
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
	)
}

// Chat sends a provider-agnostic chat request as a chat completion and normalizes the response.
func (p *openAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	msgs, err := toOpenAIMessages(req.Messages)
	if err != nil {
		return nil, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    msgs,
		Temperature: openai.Float(req.Temperature),
		MaxTokens:   openai.Int(int64(resolveMaxTokens(req.MaxTokens))),
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.id, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%s chat completion returned no choices", p.id)
	}

	return &ChatResponse{
		Content: completion.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:  int(completion.Usage.TotalTokens),
		},
	}, nil
}

func toOpenAIMessages(messages []ChatMessage) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("unsupported message role %s", msg.Role)
		}
	}
	return out, nil
}
