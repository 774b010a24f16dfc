// Package registry holds the closed set of supported LLM providers and their defaults.
package registry

import "strings"

// ID identifies one LLM provider.
type ID string

const (
	Ollama      ID = "ollama"
	OpenAI      ID = "openai"
	Anthropic   ID = "anthropic"
	Google      ID = "google"
	Bedrock     ID = "bedrock"
	Azure       ID = "azure"
	OpenRouter  ID = "openrouter"
	DeepSeek    ID = "deepseek"
	SiliconFlow ID = "siliconflow"
)

// Default is the provider used when none is selected.
const Default = Ollama

// Protocol is the request shape a provider speaks.
type Protocol string

const (
	ProtocolOpenAI    Protocol = "openai-compatible"
	ProtocolAnthropic Protocol = "anthropic"
	ProtocolGemini    Protocol = "gemini"
)

type entry struct {
	model    string
	baseURL  string
	protocol Protocol
	label    string
}

var table = map[ID]entry{
	Ollama:      {model: "llama3.2", baseURL: "http://localhost:11434", protocol: ProtocolOpenAI, label: "Ollama"},
	OpenAI:      {model: "gpt-4o-mini", baseURL: "https://api.openai.com/v1", protocol: ProtocolOpenAI, label: "OpenAI"},
	Anthropic:   {model: "claude-3-5-sonnet-20241022", protocol: ProtocolAnthropic, label: "Anthropic"},
	Google:      {model: "gemini-1.5-flash", protocol: ProtocolGemini, label: "Google AI"},
	Bedrock:     {model: "anthropic.claude-3-5-sonnet-20241022-v2:0", protocol: ProtocolAnthropic, label: "AWS Bedrock"},
	Azure:       {model: "gpt-4o-mini", protocol: ProtocolOpenAI, label: "Azure OpenAI"},
	OpenRouter:  {model: "meta-llama/llama-3.2-3b-instruct:free", baseURL: "https://openrouter.ai/api/v1", protocol: ProtocolOpenAI, label: "OpenRouter"},
	DeepSeek:    {model: "deepseek-chat", baseURL: "https://api.deepseek.com", protocol: ProtocolOpenAI, label: "DeepSeek"},
	SiliconFlow: {model: "deepseek-ai/DeepSeek-V3", baseURL: "https://api.siliconflow.cn/v1", protocol: ProtocolOpenAI, label: "SiliconFlow"},
}

var order = []ID{Ollama, OpenAI, Anthropic, Google, Bedrock, Azure, OpenRouter, DeepSeek, SiliconFlow}

// All returns every known provider in a stable order.
func All() []ID {
	out := make([]ID, len(order))
	copy(out, order)
	return out
}

// Known reports whether id is one of the supported providers.
func Known(id ID) bool {
	_, ok := table[id]
	return ok
}

// Parse normalizes s and reports whether it names a known provider.
func Parse(s string) (ID, bool) {
	id := ID(strings.ToLower(strings.TrimSpace(s)))
	return id, Known(id)
}

// DefaultModel returns the model used when no override is configured.
func DefaultModel(id ID) string {
	return table[id].model
}

// DefaultBaseURL returns the provider's default endpoint, or "" when the SDK default applies.
func DefaultBaseURL(id ID) string {
	return table[id].baseURL
}

// ProtocolOf returns the wire protocol spoken by id.
func ProtocolOf(id ID) Protocol {
	return table[id].protocol
}

// Label returns the human-readable provider name used in messages.
func Label(id ID) string {
	if e, ok := table[id]; ok {
		return e.label
	}
	return string(id)
}

// ConfigurableEndpoint reports whether the endpoint may be overridden from the environment.
func ConfigurableEndpoint(id ID) bool {
	return id == Ollama
}
