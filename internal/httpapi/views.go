package httpapi

import (
	"time"

	"insightboard/internal/store"
)

type actionItemJSON struct {
	ID              string     `json:"id"`
	Text            string     `json:"text"`
	Priority        string     `json:"priority"`
	Status          string     `json:"status"`
	Tags            []string   `json:"tags"`
	TranscriptID    string     `json:"transcriptId,omitempty"`
	TranscriptTitle string     `json:"transcriptTitle,omitempty"`
	CompletedAt     *time.Time `json:"completedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type transcriptJSON struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Sentiment string    `json:"sentiment,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type transcriptSummaryJSON struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Status          string    `json:"status"`
	Sentiment       string    `json:"sentiment,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	ActionItemCount int       `json:"actionItemCount"`
}

func toActionItemJSON(item store.ActionItem) actionItemJSON {
	tags := item.Tags
	if tags == nil {
		tags = []string{}
	}
	return actionItemJSON{
		ID:              item.ID,
		Text:            item.Text,
		Priority:        string(item.Priority),
		Status:          item.Status,
		Tags:            tags,
		TranscriptID:    item.TranscriptID,
		TranscriptTitle: item.TranscriptTitle,
		CompletedAt:     item.CompletedAt,
		CreatedAt:       item.CreatedAt,
	}
}

func toActionItemsJSON(items []store.ActionItem) []actionItemJSON {
	out := make([]actionItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toActionItemJSON(item))
	}
	return out
}

func toTranscriptJSON(t store.Transcript) transcriptJSON {
	return transcriptJSON{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Sentiment: t.Sentiment,
		Summary:   t.Summary,
		CreatedAt: t.CreatedAt,
	}
}
