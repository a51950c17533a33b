package llm

import (
	"strings"

	"go.uber.org/zap"

	"insightboard/internal/analysis"
	"insightboard/internal/config"
	"insightboard/internal/prompt"
)

// BuildProviders returns adapters in the configured order. Unknown and
// duplicate names are skipped.
func BuildProviders(cfg config.Config, prompts *prompt.Set, logger *zap.Logger) []analysis.Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	seen := make(map[string]bool)
	var out []analysis.Provider
	for _, raw := range cfg.Analysis.ProviderOrder {
		name := strings.ToLower(strings.TrimSpace(raw))
		if seen[name] {
			continue
		}
		settings, ok := cfg.Provider(name)
		if !ok {
			logger.Warn("ignoring unknown llm provider", zap.String("provider", raw))
			continue
		}
		seen[name] = true
		opts := Options{
			APIKey:  settings.APIKey,
			Model:   settings.Model,
			BaseURL: settings.BaseURL,
			Timeout: cfg.Analysis.Timeout,
		}
		out = append(out, NewAdapter(newClient(name, opts), prompts))
	}
	return out
}

func newClient(name string, opts Options) Client {
	switch name {
	case "openai":
		return NewOpenAI(opts)
	case "anthropic":
		return NewAnthropic(opts)
	case "ollama":
		return NewOllama(opts)
	default:
		return NewGemini(opts)
	}
}
