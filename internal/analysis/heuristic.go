package analysis

import "strings"

const (
	FallbackReviewText  = "Review transcript for specific action items - AI analysis unavailable"
	FallbackManualText  = "Review meeting transcript manually - AI analysis unavailable"
	FallbackSummary     = "AI analysis unavailable. Please review transcript manually for action items."
	FallbackTag         = "@Admin"
	fallbackSuggestion1 = "Review and prioritize outstanding action items"
	fallbackSuggestion2 = "Follow up with meeting participants on open decisions"
)

var (
	actionKeywords = []string{"action", "task", "todo", "follow up", "next steps", "deadline", "due", "assign", "responsible"}
	highKeywords   = []string{"urgent", "asap", "immediately", "critical", "important"}
	lowKeywords    = []string{"eventually", "when possible", "low priority"}
)

// Heuristic analyzes a transcript without any network access. It always
// returns exactly one draft.
func Heuristic(transcript string) AnalysisResult {
	words := strings.Fields(strings.ToLower(transcript))
	joined := strings.Join(words, " ")

	priority := PriorityMedium
	switch {
	case containsAny(words, joined, highKeywords):
		priority = PriorityHigh
	case containsAny(words, joined, lowKeywords):
		priority = PriorityLow
	}

	text := FallbackManualText
	if containsAny(words, joined, actionKeywords) {
		text = FallbackReviewText
	}

	return AnalysisResult{
		ActionItems: []ActionItemDraft{{
			Text:     text,
			Priority: priority,
			Tags:     []string{FallbackTag},
		}},
		Sentiment: SentimentNeutral,
		Summary:   FallbackSummary,
	}
}

// HeuristicSuggestions is the network-free answer to a suggestion request.
func HeuristicSuggestions() []ActionItemDraft {
	return []ActionItemDraft{
		{Text: fallbackSuggestion1, Priority: PriorityMedium, Tags: []string{FallbackTag}},
		{Text: fallbackSuggestion2, Priority: PriorityMedium, Tags: []string{FallbackTag}},
	}
}

// containsAny matches single-word keywords against tokens and phrases against
// the whitespace-normalized text.
func containsAny(words []string, joined string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(joined, kw) {
				return true
			}
			continue
		}
		for _, w := range words {
			if strings.Contains(w, kw) {
				return true
			}
		}
	}
	return false
}
