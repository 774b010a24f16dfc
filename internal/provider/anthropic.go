package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/neoclaw-ai/umlsmith/internal/config"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
)

const defaultBedrockRegion = "us-east-1"

// anthropicProvider speaks the Messages API, either directly or through
// Bedrock's invoke endpoint.
type anthropicProvider struct {
	id     registry.ID
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropicProvider(cfg config.ProviderConfig, o options) *anthropicProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
	}
	if baseURL := resolveBaseURL(cfg); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicProvider{
		id:     registry.Anthropic,
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(resolveModel(cfg)),
	}
}

// newBedrockProvider signs requests with static AWS credentials.
func newBedrockProvider(cfg config.ProviderConfig, o options) *anthropicProvider {
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = defaultBedrockRegion
	}
	awsCfg := aws.Config{
		Region:      region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	opts := []option.RequestOption{
		bedrock.WithConfig(awsCfg),
		option.WithHTTPClient(o.httpClient),
		option.WithMaxRetries(0),
		// ANTHROPIC_API_KEY from the process env must not reach AWS.
		option.WithHeaderDel("X-Api-Key"),
	}
	if baseURL := resolveBaseURL(cfg); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicProvider{
		id:     registry.Bedrock,
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(resolveModel(cfg)),
	}
}

// Chat sends a provider-agnostic chat request to Anthropic and normalizes the response.
func (p *anthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, turns := splitSystem(req.Messages)
	msgs, err := toAnthropicMessages(turns)
	if err != nil {
		return nil, err
	}

	body := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   int64(resolveMaxTokens(req.MaxTokens)),
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := p.client.Messages.New(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("%s messages: %w", p.id, err)
	}

	var contentParts []string
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(anthropic.TextBlock); ok && v.Text != "" {
			contentParts = append(contentParts, v.Text)
		}
	}

	usage := TokenUsage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return &ChatResponse{
		Content: strings.Join(contentParts, "\n"),
		Usage:   usage,
	}, nil
}

func toAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return nil, fmt.Errorf("unsupported message role %s", msg.Role)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one user message is required")
	}
	return out, nil
}
