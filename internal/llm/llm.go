package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"insightboard/internal/analysis"
	"insightboard/internal/prompt"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultMaxTokens = 2000
	temperature      = 0.3
	maxResponseBytes = 4 << 20
)

// Client sends one prompt to one vendor API and returns the model's text.
type Client interface {
	Name() string
	Model() string
	Configured() bool
	Complete(ctx context.Context, system string, user string) (string, error)
}

// Options configures a vendor client. Zero values fall back to the vendor defaults.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Adapter turns a Client into an analysis.Provider: it renders the prompt,
// calls the vendor and parses the reply.
type Adapter struct {
	client  Client
	prompts *prompt.Set
}

func NewAdapter(client Client, prompts *prompt.Set) *Adapter {
	if prompts == nil {
		prompts = prompt.Default()
	}
	return &Adapter{client: client, prompts: prompts}
}

func (a *Adapter) Name() string { return a.client.Name() }
func (a *Adapter) Available() bool { return a.client.Configured() }

func (a *Adapter) Analyze(ctx context.Context, transcript string) (analysis.AnalysisResult, error) {
	if !a.client.Configured() {
		return analysis.AnalysisResult{}, &analysis.ConfigurationError{Provider: a.Name()}
	}
	user, err := a.prompts.RenderAnalysis(transcript)
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	text, err := a.client.Complete(ctx, a.prompts.System, user)
	if err != nil {
		return analysis.AnalysisResult{}, err
	}
	return analysis.ParseResult(a.Name(), text)
}

func (a *Adapter) Suggest(ctx context.Context, contextText string) ([]analysis.ActionItemDraft, error) {
	if !a.client.Configured() {
		return nil, &analysis.ConfigurationError{Provider: a.Name()}
	}
	user, err := a.prompts.RenderSuggestions(contextText)
	if err != nil {
		return nil, err
	}
	text, err := a.client.Complete(ctx, a.prompts.System, user)
	if err != nil {
		return nil, err
	}
	return analysis.ParseSuggestions(a.Name(), text)
}

// postJSON performs one request. It never retries.
func postJSON(ctx context.Context, client *http.Client, provider string, endpoint string, headers map[string]string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", provider, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", provider, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		return &analysis.ProviderError{Provider: provider, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &analysis.ProviderError{Provider: provider, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &analysis.ProviderError{Provider: provider, StatusCode: resp.StatusCode, Err: errors.New(snippet(raw))}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &analysis.ParseError{Provider: provider, Reason: "undecodable response body", Err: err}
	}
	return nil
}

// stripURL drops the request URL from transport errors; Gemini carries its key
// in the query string.
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func snippet(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

func trimBase(base string, fallback string) string {
	if base == "" {
		base = fallback
	}
	return strings.TrimRight(base, "/")
}
