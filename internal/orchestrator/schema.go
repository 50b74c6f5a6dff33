package orchestrator

import (
	"socratic/internal/llm"
	"socratic/internal/misconception"
)

// VerdictsSchema defines the JSON shape the classifier must produce: one
// verdict per misconception it has evidence about this turn.
var VerdictsSchema = buildVerdictsSchema()

func buildVerdictsSchema() *llm.Schema {
	ids := make([]any, 0, 8)
	for _, d := range misconception.All() {
		ids = append(ids, string(d.ID))
	}

	return &llm.Schema{
		Name:        "misconception-verdicts",
		Description: "Per-turn judgments about which known misconceptions the student's message supports or contradicts",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"verdicts": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"id": map[string]any{
								"type":        "string",
								"enum":        ids,
								"description": "Misconception tag from the fixed taxonomy",
							},
							"status": map[string]any{
								"type":        "string",
								"enum":        []any{"reinforced", "weakened", "new", "absent"},
								"description": "How this turn's evidence moves the misconception",
							},
							"certainty": map[string]any{
								"type":        "number",
								"minimum":     0.0,
								"maximum":     1.0,
								"description": "Certainty of this verdict",
							},
							"rationale": map[string]any{
								"type":        "string",
								"description": "One-sentence justification",
							},
						},
						"required":             []any{"id", "status", "certainty"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"verdicts"},
			"additionalProperties": false,
		},
	}
}
