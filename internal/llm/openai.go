package llm

import (
	"context"
	"net/http"
	"strings"

	"insightboard/internal/analysis"
)

const (
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultOpenAIBaseURL = "https://api.openai.com"
)

type OpenAI struct {
	APIKey  string
	model   string
	BaseURL string
	Client  *http.Client
}

func NewOpenAI(opts Options) *OpenAI {
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		APIKey:  opts.APIKey,
		model:   model,
		BaseURL: trimBase(opts.BaseURL, defaultOpenAIBaseURL),
		Client:  opts.httpClient(),
	}
}

func (o *OpenAI) Name() string { return "openai" }
func (o *OpenAI) Model() string { return o.model }
func (o *OpenAI) Configured() bool { return strings.TrimSpace(o.APIKey) != "" }

func (o *OpenAI) Complete(ctx context.Context, system string, user string) (string, error) {
	if !o.Configured() {
		return "", &analysis.ConfigurationError{Provider: o.Name()}
	}
	type message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := map[string]any{
		"model": o.model,
		"messages": []message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		"temperature": temperature,
		"max_tokens":  defaultMaxTokens,
	}
	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	if err := postJSON(ctx, o.Client, o.Name(), o.BaseURL+"/v1/chat/completions", headers, payload, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", &analysis.ParseError{Provider: o.Name(), Reason: "no response from openai"}
	}
	return decoded.Choices[0].Message.Content, nil
}
