package analysis

import (
	"errors"
	"fmt"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around fence", raw: "Here you go:\n```json\n{\"a\":1}\n```\nThanks", want: `{"a":1}`},
		{name: "first fence wins", raw: "```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```", want: `{"a":1}`},
		{name: "no fence", raw: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.raw); got != tt.want {
				t.Fatalf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseResultFencedRoundTrip(t *testing.T) {
	raw := "```json\n{\"actionItems\":[{\"text\":\"Test item\",\"priority\":\"HIGH\",\"tags\":[\"@Test\"]}],\"sentiment\":\"POSITIVE\"}\n```"
	res, err := ParseResult("gemini", raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.ActionItems) != 1 {
		t.Fatalf("expected one item, got %d", len(res.ActionItems))
	}
	if res.ActionItems[0].Text != "Test item" || res.ActionItems[0].Priority != PriorityHigh {
		t.Fatalf("unexpected item %+v", res.ActionItems[0])
	}
	if res.Sentiment != SentimentPositive {
		t.Fatalf("expected POSITIVE, got %q", res.Sentiment)
	}
}

func TestParseResultNormalizesItems(t *testing.T) {
	raw := `{"actionItems":[
		{"priority":"high","tags":["@Tech", 3, ""]},
		{"text":"  Book venue ","priority":"LOW","tags":null},
		"not an object"
	],"sentiment":"negative","summary":" Planning "}`
	res, err := ParseResult("openai", raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(res.ActionItems) != 3 {
		t.Fatalf("expected 3 items, got %d", len(res.ActionItems))
	}
	first := res.ActionItems[0]
	if first.Text != UntitledActionItem || first.Priority != PriorityMedium {
		t.Fatalf("unexpected first item %+v", first)
	}
	if len(first.Tags) != 1 || first.Tags[0] != "@Tech" {
		t.Fatalf("expected only string tags kept, got %v", first.Tags)
	}
	second := res.ActionItems[1]
	if second.Text != "Book venue" || second.Priority != PriorityLow || second.Tags == nil {
		t.Fatalf("unexpected second item %+v", second)
	}
	if res.ActionItems[2].Text != UntitledActionItem || res.ActionItems[2].Tags == nil {
		t.Fatalf("unexpected third item %+v", res.ActionItems[2])
	}
	if res.Sentiment != SentimentNegative || res.Summary != "Planning" {
		t.Fatalf("unexpected sentiment/summary %q %q", res.Sentiment, res.Summary)
	}
}

func TestParseResultPriorityMustBeExact(t *testing.T) {
	tests := []struct {
		raw  string
		want Priority
	}{
		{raw: "HIGH", want: PriorityHigh},
		{raw: "LOW", want: PriorityLow},
		{raw: " HIGH ", want: PriorityMedium},
		{raw: "High", want: PriorityMedium},
		{raw: "URGENT", want: PriorityMedium},
		{raw: "", want: PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			raw := fmt.Sprintf(`{"actionItems":[{"text":"Ship it","priority":%q,"tags":[]}]}`, tt.raw)
			res, err := ParseResult("gemini", raw)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got := res.ActionItems[0].Priority; got != tt.want {
				t.Fatalf("priority %q: got %s, want %s", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseResultErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "Invalid JSON response"},
		{name: "empty", raw: "   "},
		{name: "missing actionItems", raw: `{"sentiment":"POSITIVE"}`},
		{name: "actionItems not array", raw: `{"actionItems":"none"}`},
		{name: "top level array", raw: `[{"text":"x"}]`},
		{name: "no items", raw: `{"actionItems":[]}`},
		{name: "trailing garbage", raw: `{"actionItems":[{"text":"x"}]} extra`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResult("openai", tt.raw)
			var parseErr *ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if parseErr.Provider != "openai" {
				t.Fatalf("expected provider on error, got %q", parseErr.Provider)
			}
		})
	}
}

func TestParseSuggestionsShapes(t *testing.T) {
	arr, err := ParseSuggestions("openai", `[{"text":"A"},{"text":"B","priority":"LOW"}]`)
	if err != nil {
		t.Fatalf("parse array: %v", err)
	}
	if len(arr) != 2 || arr[1].Priority != PriorityLow {
		t.Fatalf("unexpected suggestions %+v", arr)
	}
	obj, err := ParseSuggestions("openai", "```json\n{\"actionItems\":[{\"text\":\"C\"}]}\n```")
	if err != nil {
		t.Fatalf("parse object: %v", err)
	}
	if len(obj) != 1 || obj[0].Text != "C" {
		t.Fatalf("unexpected suggestions %+v", obj)
	}
	if _, err := ParseSuggestions("openai", `"just text"`); err == nil {
		t.Fatalf("expected error for scalar payload")
	}
}
