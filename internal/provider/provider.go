// Package provider adapts LLM backends to one provider-agnostic chat call.
package provider

import (
	"context"
	"strings"
)

// Provider sends chat requests to an LLM backend.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Role is the author role for a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in model conversation history.
type ChatMessage struct {
	Role    Role
	Content string
}

// TokenUsage reports provider token accounting for one response.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatRequest is the provider-agnostic request payload. Adapters that keep
// system text out of the message list (Anthropic, Gemini) lift RoleSystem
// messages into the provider's dedicated field.
type ChatRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
}

// ChatResponse is the provider-agnostic response payload.
type ChatResponse struct {
	Content string
	Usage   TokenUsage
}

// splitSystem separates system text from the conversational turns.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system []string
	rest := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role != RoleSystem {
			rest = append(rest, msg)
			continue
		}
		if msg.Content != "" {
			system = append(system, msg.Content)
		}
	}
	return strings.Join(system, "\n\n"), rest
}
