package llm

import (
	"context"
	"net/http"
	"strings"

	"insightboard/internal/analysis"
)

const defaultOllamaModel = "llama3"

// Ollama talks to a self-hosted server. It needs no key; the base URL is its
// credential.
type Ollama struct {
	BaseURL string
	model   string
	Client  *http.Client
}

func NewOllama(opts Options) *Ollama {
	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}
	return &Ollama{
		BaseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   model,
		Client:  opts.httpClient(),
	}
}

func (o *Ollama) Name() string { return "ollama" }
func (o *Ollama) Model() string { return o.model }
func (o *Ollama) Configured() bool { return o.BaseURL != "" }

func (o *Ollama) Complete(ctx context.Context, system string, user string) (string, error) {
	if !o.Configured() {
		return "", &analysis.ConfigurationError{Provider: o.Name()}
	}
	payload := map[string]any{
		"model":  o.model,
		"stream": false,
		"format": "json",
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"options": map[string]any{
			"temperature": temperature,
			"num_predict": defaultMaxTokens,
		},
	}
	var decoded struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := postJSON(ctx, o.Client, o.Name(), o.BaseURL+"/api/chat", nil, payload, &decoded); err != nil {
		return "", err
	}
	if strings.TrimSpace(decoded.Message.Content) == "" {
		return "", &analysis.ParseError{Provider: o.Name(), Reason: "no response from ollama"}
	}
	return decoded.Message.Content, nil
}
