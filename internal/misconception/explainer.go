package misconception

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/abhisek/adaptiq/internal/content"
	"github.com/abhisek/adaptiq/internal/llm"
	"github.com/abhisek/adaptiq/internal/logger"
)

// Purpose tags LLM request events made by the explainer.
const Purpose = "misconception-explanation"

// Explanation sources.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// Explanation is the feedback shown after an incorrect answer.
type Explanation struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
	Tag        string `json:"misconception_tag,omitempty"`
	Text       string `json:"text"`
	Source     string `json:"source"`
}

type ExplainerConfig struct {
	MaxTokens   int
	Temperature float64
}

func DefaultExplainerConfig() ExplainerConfig {
	return ExplainerConfig{
		MaxTokens:   250,
		Temperature: 0.7,
	}
}

// Explainer turns a wrong answer into an explanation. A nil provider makes
// every explanation a fallback.
type Explainer struct {
	provider llm.Provider
	cfg      ExplainerConfig
	log      *logger.Logger
}

func NewExplainer(provider llm.Provider, cfg ExplainerConfig, log *logger.Logger) *Explainer {
	if log == nil {
		log = logger.Nop()
	}
	return &Explainer{provider: provider, cfg: cfg, log: log.With("component", "misconception")}
}

// Enabled reports whether explanations can be generated.
func (e *Explainer) Enabled() bool {
	return e.provider != nil
}

type explanationOutput struct {
	Explanation string `json:"explanation"`
}

// Explain never fails: when the option is missing or correct, or the LLM
// call does not succeed, the tag's fallback text is returned.
func (e *Explainer) Explain(ctx context.Context, q *content.Question, conceptName, selectedOptionID string) *Explanation {
	ex := &Explanation{OptionID: selectedOptionID, Source: SourceFallback}
	if q == nil {
		ex.Text = GenericFallback
		return ex
	}
	ex.QuestionID = q.ID

	selected := q.Option(selectedOptionID)
	if selected != nil {
		ex.Tag = selected.MisconceptionTag
	}
	ex.Text = FallbackFor(ex.Tag)

	correct := q.CorrectOption()
	if selected == nil || selected.IsCorrect || correct == nil || e.provider == nil {
		return ex
	}

	text, err := e.generate(ctx, q, conceptName, selected, correct)
	if err != nil {
		e.log.Warn("explanation fell back", "question_id", q.ID, "tag", ex.Tag, "error", err)
		return ex
	}
	ex.Text = text
	ex.Source = SourceLLM
	return ex
}

func (e *Explainer) generate(ctx context.Context, q *content.Question, conceptName string, selected, correct *content.Option) (string, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	userMsg, err := buildExplanationMessage(promptData{
		Question:      q,
		ConceptName:   conceptName,
		Selected:      selected,
		Correct:       correct,
		Misconception: describeTag(selected.MisconceptionTag),
	})
	if err != nil {
		return "", fmt.Errorf("build explanation prompt: %w", err)
	}

	resp, err := e.provider.Generate(ctx, llm.Request{
		System:      explanationSystemPrompt,
		Prompt:      userMsg,
		Schema:      ExplanationSchema,
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("LLM explanation failed: %w", err)
	}

	var out explanationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse explanation response: %w", err)
	}
	text := strings.TrimSpace(out.Explanation)
	if text == "" {
		return "", errors.New("empty explanation")
	}
	return text, nil
}

func describeTag(tag string) string {
	if m := Get(tag); m != nil {
		return fmt.Sprintf("%s (%s)", m.Label, m.Description)
	}
	if tag != "" {
		return tag
	}
	return "general misunderstanding"
}

const explanationSystemPrompt = `You are an educational assistant that helps K-12 students understand misconceptions in a supportive, non-judgmental way.

Instructions:
- Write 3-5 short sentences in simple language.
- Focus on clarifying the misconception behind the student's choice.
- Be encouraging. Do not say "you're mistaken" or "your error".
- Do not reveal the correct answer directly; guide the student toward it.
- End with an insight that helps with similar problems.`

type promptData struct {
	Question      *content.Question
	ConceptName   string
	Selected      *content.Option
	Correct       *content.Option
	Misconception string
}

var explanationUserTemplate = template.Must(template.New("explanation").Parse(`Concept: {{.ConceptName}}
Question: {{.Question.Stem}}
Options:
{{range .Question.Options}}- {{.Text}}{{if .IsCorrect}} (CORRECT ANSWER){{end}}
{{end}}Student selected: {{.Selected.Text}}
Correct answer: {{.Correct.Text}}
Misconception type: {{.Misconception}}
`))

func buildExplanationMessage(data promptData) (string, error) {
	var buf bytes.Buffer
	if err := explanationUserTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
