package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"insightboard/internal/analysis"
)

const (
	defaultGeminiModel   = "gemini-1.5-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
)

type Gemini struct {
	APIKey  string
	model   string
	BaseURL string
	Client  *http.Client
}

func NewGemini(opts Options) *Gemini {
	model := opts.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		APIKey:  opts.APIKey,
		model:   model,
		BaseURL: trimBase(opts.BaseURL, defaultGeminiBaseURL),
		Client:  opts.httpClient(),
	}
}

func (g *Gemini) Name() string { return "gemini" }
func (g *Gemini) Model() string { return g.model }
func (g *Gemini) Configured() bool { return strings.TrimSpace(g.APIKey) != "" }

func (g *Gemini) Complete(ctx context.Context, system string, user string) (string, error) {
	if !g.Configured() {
		return "", &analysis.ConfigurationError{Provider: g.Name()}
	}
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	payload := map[string]any{
		"systemInstruction": content{Parts: []part{{Text: system}}},
		"contents":          []content{{Role: "user", Parts: []part{{Text: user}}}},
		"generationConfig": map[string]any{
			"temperature":     temperature,
			"maxOutputTokens": defaultMaxTokens,
		},
	}
	var decoded struct {
		Candidates []struct {
			Content content `json:"content"`
		} `json:"candidates"`
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, url.PathEscape(g.model), url.QueryEscape(g.APIKey))
	if err := postJSON(ctx, g.Client, g.Name(), endpoint, nil, payload, &decoded); err != nil {
		return "", err
	}
	if len(decoded.Candidates) == 0 {
		return "", &analysis.ParseError{Provider: g.Name(), Reason: "no response from gemini"}
	}
	var parts []string
	for _, p := range decoded.Candidates[0].Content.Parts {
		parts = append(parts, p.Text)
	}
	text := strings.Join(parts, "")
	if strings.TrimSpace(text) == "" {
		return "", &analysis.ParseError{Provider: g.Name(), Reason: "no response from gemini"}
	}
	return text, nil
}
