package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

type Set struct {
	Version     string   `yaml:"version"`
	System      string   `yaml:"system"`
	Analysis    string   `yaml:"analysis"`
	Suggestions string   `yaml:"suggestions"`
	Teams       []string `yaml:"teams"`

	analysisTmpl   *template.Template
	suggestionTmpl *template.Template
}

type templateData struct {
	Transcript string
	Context    string
	Teams      string
}

// Default returns the built-in prompt set.
func Default() *Set {
	s := &Set{
		Version:     "v1",
		System:      defaultSystem,
		Analysis:    defaultAnalysis,
		Suggestions: defaultSuggestions,
		Teams:       []string{"@Marketing", "@Tech", "@Sales", "@HR", "@Finance", "@Legal"},
	}
	if err := s.compile(); err != nil {
		panic(err)
	}
	return s
}

// Load overlays the YAML file at path on top of Default. An empty path yields
// the defaults.
func Load(path string) (*Set, error) {
	s := Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse prompt set %s: %w", path, err)
	}
	if err := s.compile(); err != nil {
		return nil, fmt.Errorf("prompt set %s: %w", path, err)
	}
	return s, nil
}

func (s *Set) compile() error {
	if strings.TrimSpace(s.Analysis) == "" {
		return errors.New("analysis template is empty")
	}
	if strings.TrimSpace(s.Suggestions) == "" {
		return errors.New("suggestions template is empty")
	}
	at, err := template.New("analysis").Option("missingkey=error").Parse(s.Analysis)
	if err != nil {
		return fmt.Errorf("analysis template: %w", err)
	}
	st, err := template.New("suggestions").Option("missingkey=error").Parse(s.Suggestions)
	if err != nil {
		return fmt.Errorf("suggestions template: %w", err)
	}
	s.analysisTmpl = at
	s.suggestionTmpl = st
	return nil
}

// RenderAnalysis embeds the transcript in the analysis instruction block.
func (s *Set) RenderAnalysis(transcript string) (string, error) {
	return s.render(s.analysisTmpl, templateData{Transcript: transcript, Teams: s.teamList()})
}

func (s *Set) RenderSuggestions(contextText string) (string, error) {
	return s.render(s.suggestionTmpl, templateData{Context: contextText, Teams: s.teamList()})
}

func (s *Set) render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Set) teamList() string {
	return strings.Join(s.Teams, ", ")
}

const defaultSystem = "You are an expert meeting analyst who extracts actionable items from transcripts. Always respond with valid JSON."

const defaultAnalysis = `
Analyze the following meeting transcript and extract actionable items. For each action item, determine:
1. The specific task or action to be taken
2. Priority level (LOW, MEDIUM, HIGH) based on urgency and importance
3. Relevant team tags (e.g., {{.Teams}})

Also provide:
- Overall sentiment of the meeting (POSITIVE, NEUTRAL, NEGATIVE)
- A brief summary of key discussion points

Transcript:
{{.Transcript}}

Please respond in the following JSON format:
{
  "actionItems": [
    {
      "text": "Specific action item description",
      "priority": "HIGH|MEDIUM|LOW",
      "tags": ["@TeamName", "@AnotherTeam"]
    }
  ],
  "sentiment": "POSITIVE|NEUTRAL|NEGATIVE",
  "summary": "Brief summary of the meeting"
}

Guidelines:
- Extract only clear, actionable items (not general discussion points)
- Assign realistic priorities based on business impact and urgency
- Use appropriate team tags based on the nature of the task
- Keep action items concise but specific
- Ensure the summary captures the main outcomes and decisions
`

const defaultSuggestions = `
Based on the following context, suggest 3-5 relevant action items that might be needed:

Context: {{.Context}}

Use team tags such as {{.Teams}}.

Respond with a JSON array of action items in this format:
[
  {
    "text": "Specific action item description",
    "priority": "HIGH|MEDIUM|LOW",
    "tags": ["@TeamName"]
  }
]
`
