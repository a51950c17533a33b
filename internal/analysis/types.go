package analysis

import "strings"

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is exactly one of LOW, MEDIUM or HIGH.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities with HIGH first.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ParsePriority accepts any letter case and reports whether the input named a known priority.
func ParsePriority(raw string) (Priority, bool) {
	p := Priority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return PriorityMedium, false
	}
	return p, true
}

type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentNegative Sentiment = "NEGATIVE"
)

func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

type ActionItemDraft struct {
	Text     string   `json:"text"`
	Priority Priority `json:"priority"`
	Tags     []string `json:"tags"`
}

// AnalysisResult is produced once per analysis call. Sentiment and Summary are
// empty when the provider did not return them.
type AnalysisResult struct {
	ActionItems []ActionItemDraft `json:"actionItems"`
	Sentiment   Sentiment         `json:"sentiment,omitempty"`
	Summary     string            `json:"summary,omitempty"`
}

type ProviderConfig struct {
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
}
