package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/config"
	"google.golang.org/genai"
)

type googleProvider struct {
	client *genai.Client
	model  string
}

func newGoogleProvider(cfg config.ProviderConfig, o options) (*googleProvider, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: o.httpClient,
	}
	if baseURL := resolveBaseURL(cfg); baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("create google client: %w", err)
	}
	return &googleProvider{client: client, model: resolveModel(cfg)}, nil
}

// Chat sends the conversation to generateContent. Assistant turns use the
// Gemini "model" role and system text becomes the system instruction.
func (p *googleProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, turns := splitSystem(req.Messages)

	gcfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](float32(req.Temperature)),
		MaxOutputTokens: int32(resolveMaxTokens(req.MaxTokens)),
	}
	if system != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, msg := range turns {
		switch msg.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			return nil, fmt.Errorf("unsupported message role %s", msg.Role)
		}
	}

	res, err := p.client.Models.GenerateContent(ctx, p.model, contents, gcfg)
	if err != nil {
		return nil, fmt.Errorf("google generate content: %w", err)
	}

	var parts []string
	if len(res.Candidates) > 0 && res.Candidates[0].Content != nil {
		for _, part := range res.Candidates[0].Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			parts = append(parts, part.Text)
		}
	}

	out := &ChatResponse{Content: strings.Join(parts, "")}
	if md := res.UsageMetadata; md != nil {
		out.Usage = TokenUsage{
			InputTokens:  int(md.PromptTokenCount),
			OutputTokens: int(md.CandidatesTokenCount),
			TotalTokens:  int(md.TotalTokenCount),
		}
	}
	return out, nil
}
