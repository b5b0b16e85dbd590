package misconception

import "github.com/abhisek/adaptiq/internal/llm"

// ExplanationSchema constrains the LLM response to a single explanation.
var ExplanationSchema = &llm.Schema{
	Name:        "misconception-explanation",
	Description: "A short, encouraging explanation for a student who picked an incorrect option",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanation": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Three to five supportive sentences that guide the student without revealing the answer",
			},
		},
		"required":             []any{"explanation"},
		"additionalProperties": false,
	},
}
