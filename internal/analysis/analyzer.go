package analysis

import (
	"context"
	"strings"
)

// Analyzer is the entry point callers use for transcript analysis.
type Analyzer struct {
	orchestrator *Orchestrator
}

func NewAnalyzer(orchestrator *Orchestrator) *Analyzer {
	if orchestrator == nil {
		orchestrator = NewOrchestrator(nil, nil, nil)
	}
	return &Analyzer{orchestrator: orchestrator}
}

// AnalyzeTranscript fails only when transcript is blank. Provider failures
// degrade to the heuristic result.
func (a *Analyzer) AnalyzeTranscript(ctx context.Context, transcript string) (AnalysisResult, error) {
	if strings.TrimSpace(transcript) == "" {
		return AnalysisResult{}, &ValidationError{Field: "transcript", Err: ErrEmptyTranscript}
	}
	return a.orchestrator.Analyze(ctx, transcript), nil
}

func (a *Analyzer) SuggestActionItems(ctx context.Context, contextText string) ([]ActionItemDraft, error) {
	if strings.TrimSpace(contextText) == "" {
		return nil, &ValidationError{Field: "context", Err: ErrEmptyContext}
	}
	return a.orchestrator.Suggest(ctx, contextText), nil
}

func (a *Analyzer) Providers() []ProviderConfig {
	return a.orchestrator.Providers()
}
