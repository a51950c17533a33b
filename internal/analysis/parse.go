package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const UntitledActionItem = "Untitled action item"

var fencedBlockRE = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// resultSchema only pins the envelope; item fields are coerced one by one.
var resultSchema = jsonschema.MustCompileString("analysis-result.json", `{
	"type": "object",
	"required": ["actionItems"],
	"properties": {
		"actionItems": {"type": "array"}
	}
}`)

// ExtractJSON returns the body of the first markdown code fence in raw, or raw
// itself when there is none.
func ExtractJSON(raw string) string {
	if m := fencedBlockRE.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// ParseResult decodes a model reply into a normalized AnalysisResult.
func ParseResult(provider string, raw string) (AnalysisResult, error) {
	payload, err := decodeLoose(provider, raw)
	if err != nil {
		return AnalysisResult{}, err
	}
	obj, ok := payload.(map[string]any)
	if !ok {
		return AnalysisResult{}, &ParseError{Provider: provider, Reason: "response is not a json object"}
	}
	if err := resultSchema.Validate(obj); err != nil {
		return AnalysisResult{}, &ParseError{Provider: provider, Reason: "invalid response format", Err: err}
	}

	items := normalizeItems(obj["actionItems"].([]any))
	if len(items) == 0 {
		return AnalysisResult{}, &ParseError{Provider: provider, Reason: "no action items in response"}
	}
	return AnalysisResult{
		ActionItems: items,
		Sentiment:   normalizeSentiment(obj["sentiment"]),
		Summary:     stringField(obj["summary"]),
	}, nil
}

// ParseSuggestions accepts either a bare JSON array of items or an object with
// an actionItems array.
func ParseSuggestions(provider string, raw string) ([]ActionItemDraft, error) {
	payload, err := decodeLoose(provider, raw)
	if err != nil {
		return nil, err
	}
	if arr, ok := payload.([]any); ok {
		payload = map[string]any{"actionItems": arr}
	}
	if err := resultSchema.Validate(payload); err != nil {
		return nil, &ParseError{Provider: provider, Reason: "invalid suggestion format", Err: err}
	}
	items := normalizeItems(payload.(map[string]any)["actionItems"].([]any))
	if len(items) == 0 {
		return nil, &ParseError{Provider: provider, Reason: "no suggestions in response"}
	}
	return items, nil
}

func decodeLoose(provider string, raw string) (any, error) {
	body := ExtractJSON(raw)
	if body == "" {
		return nil, &ParseError{Provider: provider, Reason: "empty response"}
	}
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, &ParseError{Provider: provider, Reason: "response is not valid json", Err: err}
	}
	if dec.More() {
		return nil, &ParseError{Provider: provider, Reason: "response is not valid json", Err: errors.New("trailing data after json value")}
	}
	return payload, nil
}

// NormalizeDraft enforces the draft invariants on an already typed item.
func NormalizeDraft(d ActionItemDraft) ActionItemDraft {
	d.Text = strings.TrimSpace(d.Text)
	if d.Text == "" {
		d.Text = UntitledActionItem
	}
	if !d.Priority.Valid() {
		d.Priority = PriorityMedium
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	return d
}

func normalizeItems(raw []any) []ActionItemDraft {
	out := make([]ActionItemDraft, 0, len(raw))
	for _, entry := range raw {
		fields, _ := entry.(map[string]any)
		draft := ActionItemDraft{
			Text:     stringField(fields["text"]),
			Priority: Priority(exactString(fields["priority"])),
			Tags:     tagsField(fields["tags"]),
		}
		out = append(out, NormalizeDraft(draft))
	}
	return out
}

func normalizeSentiment(v any) Sentiment {
	s := Sentiment(strings.ToUpper(stringField(v)))
	if !s.Valid() {
		return ""
	}
	return s
}

// exactString returns v untouched so that padded or lower-case priorities
// fall through to MEDIUM.
func exactString(v any) string {
	s, _ := v.(string)
	return s
}

func stringField(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func tagsField(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return []string{}
	}
	tags := make([]string, 0, len(arr))
	for _, item := range arr {
		if tag := stringField(item); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
