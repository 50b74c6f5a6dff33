package orchestrator

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"socratic/internal/misconception"
	"socratic/internal/strategy"
)

// tutorSystemPrompt constrains the model to the Socratic contract: one
// short question per turn, never an answer.
const tutorSystemPrompt = `You are a Socratic programming tutor.

RESPONSE RULES:
- If the student has fully understood and stated the complete solution, say "That's correct!" and stop.
- If the student is very close but missing a minor detail, say "Almost! [one hint]" and stop.
- Otherwise ask exactly ONE short question (under 20 words) that advances their thinking.

Guide the student to discover the solution themselves:
1. Review the conversation history and NEVER repeat a question.
2. If they have not identified the issue, ask about behavior, edge cases, or specific inputs.
3. If they see the issue but not why it matters, ask why that behavior causes the error.
4. If they understand the problem, ask how to prevent it or what check is needed.
5. If they know the approach, ask about the specific implementation.

NEVER:
- Provide answers, explanations, hints beyond the "Almost!" case, or examples.
- Suggest code changes or write code.
- Restate error messages or write more than one sentence.
- Use markdown formatting.`

// classifySystemPrompt drives the misconception classifier.
const classifySystemPrompt = `You are an expert programming-education diagnostician. Given a student's message, decide which misconceptions from the fixed taxonomy the message gives evidence about this turn.

Instructions:
- Only report tags the message actually bears on; omit the rest.
- "new" means first clear evidence of the misconception; "reinforced" means further evidence; "weakened" means the student shows partial correct understanding; "absent" means the student demonstrates the correct concept.
- Do NOT invent tags outside the taxonomy.
- Keep each rationale to one sentence.`

// summarySystemPrompt drives end-of-session and rolling summaries.
const summarySystemPrompt = `You summarize tutoring conversations. Produce a brief summary covering the concepts discussed and the key questions the student asked. Keep it under five sentences.`

// strategyGuidance maps each dialogue strategy to the instruction appended
// to the generation prompt.
var strategyGuidance = map[strategy.Strategy]string{
	strategy.Diagnostic:         "Ask a diagnostic question that locates where the student's understanding breaks down.",
	strategy.Narrowing:          "The student is confident. Ask a narrowing question that zooms in on the precise faulty spot.",
	strategy.ConceptualContrast: "Ask a contrastive question that makes the student compare what they expect with what actually happens.",
	strategy.Reflective:         "Do not explain. Ask a reflective question that makes the student articulate the concept themselves.",
}

var generateTemplate = template.Must(template.New("generate").Parse(`STUDENT MESSAGE:
{{.Message}}

{{if .Summary}}SESSION SO FAR:
{{.Summary}}

{{end}}{{if .Targeted}}The student likely holds this misconception: {{.TargetedLabel}} — {{.TargetedDescription}}. Target it.
{{end}}{{.Guidance}}
{{if .LastQuestion}}Your previous question was: "{{.LastQuestion}}". Do not repeat it.
{{end}}Respond with ONE short question (<20 words) tailored to their code. Nothing else.{{if .Context}}

[Current Editor Context]:
` + "```" + `
{{.Context}}
` + "```" + `{{end}}`))

var classifyTemplate = template.Must(template.New("classify").Parse(`Taxonomy:
{{range .Taxonomy}}- {{.ID}}: {{.Description}} (e.g. {{.ExampleList}})
{{end}}
{{if .Summary}}Session so far: {{.Summary}}
{{end}}{{if .LastQuestion}}Tutor's last question: "{{.LastQuestion}}"
{{end}}Student message:
{{.Message}}{{if .Context}}

Editor context:
{{.Context}}{{end}}`))

type generatePromptData struct {
	Message             string
	Summary             string
	Context             string
	LastQuestion        string
	Targeted            string
	TargetedLabel       string
	TargetedDescription string
	Guidance            string
}

func buildGeneratePrompt(in GenerateInput) (string, error) {
	data := generatePromptData{
		Message:      in.Message,
		Summary:      in.Summary,
		Context:      in.Context,
		LastQuestion: in.LastQuestion,
		Guidance:     strategyGuidance[in.Strategy],
	}
	if in.Targeted != "" {
		if d := misconception.Get(in.Targeted); d != nil {
			data.Targeted = string(d.ID)
			data.TargetedLabel = d.Label
			data.TargetedDescription = d.Description
		}
	}

	var buf bytes.Buffer
	if err := generateTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("build generation prompt: %w", err)
	}
	return buf.String(), nil
}

type taxonomyPromptEntry struct {
	ID          misconception.ID
	Description string
	ExampleList string
}

type classifyPromptData struct {
	Taxonomy     []taxonomyPromptEntry
	Message      string
	Summary      string
	Context      string
	LastQuestion string
}

func buildClassifyPrompt(in ClassifyInput) (string, error) {
	data := classifyPromptData{
		Message:      in.Message,
		Summary:      in.Summary,
		Context:      in.Context,
		LastQuestion: in.LastQuestion,
	}
	for _, d := range misconception.All() {
		data.Taxonomy = append(data.Taxonomy, taxonomyPromptEntry{
			ID:          d.ID,
			Description: d.Description,
			ExampleList: strings.Join(d.Examples, "; "),
		})
	}

	var buf bytes.Buffer
	if err := classifyTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("build classify prompt: %w", err)
	}
	return buf.String(), nil
}
