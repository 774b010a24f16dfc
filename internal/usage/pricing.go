package usage

import "strings"

const perMillion = 1_000_000.0

type price struct {
	inputPerMillion  float64
	outputPerMillion float64
}

func (p price) cost(inputTokens, outputTokens int) float64 {
	inputCost := (float64(inputTokens) / perMillion) * p.inputPerMillion
	outputCost := (float64(outputTokens) / perMillion) * p.outputPerMillion
	return inputCost + outputCost
}

// EstimateAnthropicUSD returns estimated USD cost for Anthropic models,
// whether called directly or through Bedrock.
// Returns ok=false when no known fallback pricing exists for the model.
func EstimateAnthropicUSD(model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	modelName := strings.ToLower(strings.TrimSpace(model))

	var p price
	switch {
	case strings.Contains(modelName, "haiku"):
		p = price{0.80, 4.00}
	case strings.Contains(modelName, "sonnet"):
		p = price{3.00, 15.00}
	case strings.Contains(modelName, "opus"):
		p = price{15.00, 75.00}
	default:
		return 0, false
	}
	return p.cost(inputTokens, outputTokens), true
}

// EstimateOpenAIUSD covers the gpt-4o family, also when served through Azure.
func EstimateOpenAIUSD(model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	modelName := strings.ToLower(strings.TrimSpace(model))
	modelName = modelName[strings.LastIndex(modelName, "/")+1:]

	var p price
	switch {
	case strings.HasPrefix(modelName, "gpt-4o-mini"):
		p = price{0.15, 0.60}
	case strings.HasPrefix(modelName, "gpt-4o"):
		p = price{2.50, 10.00}
	default:
		return 0, false
	}
	return p.cost(inputTokens, outputTokens), true
}

// EstimateUSD returns fallback estimated USD cost for providers that require
// local pricing. Local models and unknown prices report ok=false.
func EstimateUSD(providerName, model string, inputTokens, outputTokens int) (usd float64, ok bool) {
	switch strings.ToLower(strings.TrimSpace(providerName)) {
	case "anthropic", "bedrock":
		return EstimateAnthropicUSD(model, inputTokens, outputTokens)
	case "openai", "azure":
		return EstimateOpenAIUSD(model, inputTokens, outputTokens)
	case "deepseek":
		if strings.EqualFold(strings.TrimSpace(model), "deepseek-chat") {
			return price{0.27, 1.10}.cost(inputTokens, outputTokens), true
		}
		return 0, false
	default:
		return 0, false
	}
}
