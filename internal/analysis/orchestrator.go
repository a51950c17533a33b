package analysis

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Provider is one LLM backend able to analyze transcripts.
type Provider interface {
	Name() string
	Available() bool
	Analyze(ctx context.Context, transcript string) (AnalysisResult, error)
	Suggest(ctx context.Context, contextText string) ([]ActionItemDraft, error)
}

// Recorder receives per-attempt outcomes. Outcome is "success" or an ErrorKind.
type Recorder interface {
	ProviderAttempt(provider string, outcome string, elapsed time.Duration)
	Fallback(operation string)
}

type nopRecorder struct{}

func (nopRecorder) ProviderAttempt(string, string, time.Duration) {}
func (nopRecorder) Fallback(string) {}

// Orchestrator tries providers strictly in order and ends with the heuristic.
// It holds no per-call state and is safe for concurrent use when its providers are.
type Orchestrator struct {
	providers []Provider
	logger    *zap.Logger
	recorder  Recorder
}

func NewOrchestrator(providers []Provider, logger *zap.Logger, recorder Recorder) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	ordered := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ordered = append(ordered, p)
		}
	}
	return &Orchestrator{providers: ordered, logger: logger, recorder: recorder}
}

// Providers lists the configured providers in attempt order.
func (o *Orchestrator) Providers() []ProviderConfig {
	out := make([]ProviderConfig, 0, len(o.providers))
	for _, p := range o.providers {
		out = append(out, ProviderConfig{Name: p.Name(), IsAvailable: p.Available()})
	}
	return out
}

// Analyze returns the first successful provider result, or the heuristic result.
func (o *Orchestrator) Analyze(ctx context.Context, transcript string) AnalysisResult {
	res, ok := attempt(ctx, o, "analyze", func(ctx context.Context, p Provider) (AnalysisResult, error) {
		r, err := p.Analyze(ctx, transcript)
		if err != nil {
			return r, err
		}
		if len(r.ActionItems) == 0 {
			return r, &ParseError{Provider: p.Name(), Reason: "no action items in response"}
		}
		for i := range r.ActionItems {
			r.ActionItems[i] = NormalizeDraft(r.ActionItems[i])
		}
		if r.Sentiment != "" && !r.Sentiment.Valid() {
			r.Sentiment = ""
		}
		return r, nil
	})
	if ok {
		return res
	}
	o.logger.Warn("all llm providers failed, using fallback analysis")
	o.recorder.Fallback("analyze")
	return Heuristic(transcript)
}

// Suggest mirrors Analyze for the suggestion prompt.
func (o *Orchestrator) Suggest(ctx context.Context, contextText string) []ActionItemDraft {
	res, ok := attempt(ctx, o, "suggest", func(ctx context.Context, p Provider) ([]ActionItemDraft, error) {
		items, err := p.Suggest(ctx, contextText)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, &ParseError{Provider: p.Name(), Reason: "no suggestions in response"}
		}
		for i := range items {
			items[i] = NormalizeDraft(items[i])
		}
		return items, nil
	})
	if ok {
		return res
	}
	o.logger.Warn("all llm providers failed, using fallback suggestions")
	o.recorder.Fallback("suggest")
	return HeuristicSuggestions()
}

func attempt[T any](ctx context.Context, o *Orchestrator, op string, call func(context.Context, Provider) (T, error)) (T, bool) {
	var zero T
	for _, p := range o.providers {
		name := p.Name()
		if !p.Available() {
			o.logger.Debug("provider unavailable, skipping", zap.String("provider", name), zap.String("op", op))
			continue
		}
		o.logger.Info("trying llm provider", zap.String("provider", name), zap.String("op", op))
		start := time.Now()
		res, err := call(ctx, p)
		elapsed := time.Since(start)
		if err != nil {
			kind := ErrorKind(err)
			o.recorder.ProviderAttempt(name, kind, elapsed)
			o.logger.Warn("llm provider failed, trying next",
				zap.String("provider", name),
				zap.String("op", op),
				zap.String("kind", kind),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			continue
		}
		o.recorder.ProviderAttempt(name, "success", elapsed)
		o.logger.Info("llm provider succeeded", zap.String("provider", name), zap.String("op", op), zap.Duration("elapsed", elapsed))
		return res, true
	}
	return zero, false
}
