package diagram

import (
	"strings"

	"github.com/neoclaw-ai/umlsmith/internal/provider"
	"github.com/neoclaw-ai/umlsmith/internal/registry"
)

// Reasoning families that reject a system role on OpenAI-compatible endpoints.
var userRolePrefixes = []string{
	"o1",
	"o3",
	"o4",
	"deepseek-reasoner",
	"deepseek-r1",
}

// Chat families known to honor a system role.
var systemRolePrefixes = []string{
	"gpt-",
	"chatgpt-",
	"llama",
	"deepseek-chat",
	"deepseek-v",
	"qwen",
	"mistral",
	"mixtral",
	"gemma",
	"phi",
	"claude",
	"gemini",
}

// InstructionRole picks the role that carries instructions for the resolved
// model. Providers with a native system slot always get RoleSystem; on
// OpenAI-compatible endpoints the choice follows the model family, ignoring
// any "vendor/" prefix, and unknown families fall back to RoleUser.
func InstructionRole(id registry.ID, model string) provider.Role {
	if registry.ProtocolOf(id) != registry.ProtocolOpenAI {
		return provider.RoleSystem
	}

	name := strings.ToLower(strings.TrimSpace(model))
	name = name[strings.LastIndex(name, "/")+1:]

	for _, prefix := range userRolePrefixes {
		if strings.HasPrefix(name, prefix) {
			return provider.RoleUser
		}
	}
	for _, prefix := range systemRolePrefixes {
		if strings.HasPrefix(name, prefix) {
			return provider.RoleSystem
		}
	}
	return provider.RoleUser
}
