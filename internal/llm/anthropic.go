package llm

import (
	"context"
	"net/http"
	"strings"

	"insightboard/internal/analysis"
)

const (
	defaultAnthropicModel   = "claude-3-haiku-20240307"
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

type Anthropic struct {
	APIKey  string
	model   string
	BaseURL string
	Client  *http.Client
}

func NewAnthropic(opts Options) *Anthropic {
	model := opts.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		APIKey:  opts.APIKey,
		model:   model,
		BaseURL: trimBase(opts.BaseURL, defaultAnthropicBaseURL),
		Client:  opts.httpClient(),
	}
}

func (a *Anthropic) Name() string { return "anthropic" }
func (a *Anthropic) Model() string { return a.model }
func (a *Anthropic) Configured() bool { return strings.TrimSpace(a.APIKey) != "" }

func (a *Anthropic) Complete(ctx context.Context, system string, user string) (string, error) {
	if !a.Configured() {
		return "", &analysis.ConfigurationError{Provider: a.Name()}
	}
	payload := map[string]any{
		"model":       a.model,
		"max_tokens":  defaultMaxTokens,
		"temperature": temperature,
		"system":      system,
		"messages": []map[string]string{
			{"role": "user", "content": user},
		},
	}
	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	headers := map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": anthropicVersion,
	}
	if err := postJSON(ctx, a.Client, a.Name(), a.BaseURL+"/v1/messages", headers, payload, &decoded); err != nil {
		return "", err
	}
	var parts []string
	for _, block := range decoded.Content {
		if block.Type == "" || block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", &analysis.ParseError{Provider: a.Name(), Reason: "no response from anthropic"}
	}
	return text, nil
}
