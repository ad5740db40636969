package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"formchat-be/pkg/forms"
	"formchat-be/pkg/store"
)

const (
	Router     = "router"
	Predictor  = "predictor"
	Extraction = "extraction"
)

const routerTemplate = `<task>
Classify the user's latest message into exactly one intent:
- form_filling: the user wants to fill, start or continue a form or request
- report_generation: the user wants a summary or report of submitted forms
- general_query: a question or small talk unrelated to forms
- clarification_needed: the message is too vague to classify
</task>

<conversation stage="{{.Stage}}"{{if .CurrentForm}} form="{{.CurrentForm}}"{{end}}>
{{range .History}}{{.Role}}: {{.Text}}
{{end}}</conversation>

<user_message>
{{.Message}}
</user_message>

Return JSON: {"intent": string, "confidence": number between 0 and 1, "reasoning": string}
`

const predictorTemplate = `<task>
Score how well each available form matches what the user wants to do.
Use only the listed form ids. A score of 1 means certain, 0 means unrelated.
</task>

<forms>
{{range .Forms}}- id: {{.ID}}
  title: {{.Title}}{{if .Description}}
  description: {{.Description}}{{end}}{{if .Keywords}}
  keywords: {{join .Keywords ", "}}{{end}}
{{end}}</forms>

<user_message>
{{.Message}}
</user_message>

Return JSON: {"scores": [{"form_id": string, "confidence": number, "reason": string}]}
`

const extractionTemplate = `<task>
Extract values for the fields of the form "{{.Form.Title}}" from the user's message.
Only include fields the message actually answers. Use the field ids as keys.
Dates as YYYY-MM-DD, booleans as true or false, select values exactly as one of the options.
</task>

<fields>
{{range .Form.Fields}}- {{.ID}} ({{.Type}}{{if .Required}}, required{{end}}): {{.Label}}{{if .Options}} [options: {{join .Options " | "}}]{{end}}
{{end}}</fields>
{{if .CurrentField}}
<current_question field="{{.CurrentField}}">
{{.LastPrompt}}
</current_question>
{{end}}
<user_message>
{{.Message}}
</user_message>

Return JSON: {"fields": {"field_id": "value"}, "confidence": number between 0 and 1}
`

type RouterData struct {
	Message     string
	Stage       store.Stage
	CurrentForm string
	History     []store.Turn
}

type PredictorData struct {
	Message string
	Forms   []forms.FormTemplate
}

type ExtractionData struct {
	Message      string
	Form         forms.FormTemplate
	CurrentField string
	LastPrompt   string
}

// Catalog renders the prompts used by the orchestration nodes
type Catalog struct {
	templates *template.Template
}

func NewCatalog() (*Catalog, error) {
	return NewCatalogFrom(map[string]string{
		Router:     routerTemplate,
		Predictor:  predictorTemplate,
		Extraction: extractionTemplate,
	})
}

// NewCatalogFrom parses custom prompt sources. All three names must be present.
func NewCatalogFrom(sources map[string]string) (*Catalog, error) {
	root := template.New("prompts").Funcs(template.FuncMap{"join": strings.Join})
	for _, name := range []string{Router, Predictor, Extraction} {
		src, ok := sources[name]
		if !ok {
			return nil, fmt.Errorf("prompt %q missing", name)
		}
		if _, err := root.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("parse prompt %q: %w", name, err)
		}
	}
	return &Catalog{templates: root}, nil
}

func (c *Catalog) Render(name string, data interface{}) (string, error) {
	var b strings.Builder
	if err := c.templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return b.String(), nil
}
