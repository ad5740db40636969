package prompt

import (
	"testing"

	"formchat-be/pkg/forms"
	"formchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_Render(t *testing.T) {
	c, err := NewCatalog()
	require.NoError(t, err)

	t.Run("router", func(t *testing.T) {
		out, err := c.Render(Router, RouterData{
			Message: "I need a form",
			Stage:   store.StageIdle,
			History: []store.Turn{{Role: "user", Text: "hi"}},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "I need a form")
		assert.Contains(t, out, `stage="idle"`)
		assert.Contains(t, out, "user: hi")
	})

	t.Run("predictor lists every form", func(t *testing.T) {
		out, err := c.Render(Predictor, PredictorData{
			Message: "time off",
			Forms: []forms.FormTemplate{
				{ID: "leave", Title: "Leave Request", Keywords: []string{"vacation", "pto"}},
				{ID: "expense", Title: "Expense Report"},
			},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "id: leave")
		assert.Contains(t, out, "keywords: vacation, pto")
		assert.Contains(t, out, "id: expense")
	})

	t.Run("extraction", func(t *testing.T) {
		out, err := c.Render(Extraction, ExtractionData{
			Message: "from Monday",
			Form: forms.FormTemplate{Title: "Leave Request", Fields: []forms.Field{
				{ID: "start_date", Label: "Start date", Type: forms.FieldDate, Required: true},
				{ID: "kind", Label: "Kind", Type: forms.FieldSelect, Options: []string{"vacation", "sick"}},
			}},
			CurrentField: "start_date",
			LastPrompt:   "When does your leave start?",
		})
		require.NoError(t, err)
		assert.Contains(t, out, "start_date (date, required)")
		assert.Contains(t, out, "[options: vacation | sick]")
		assert.Contains(t, out, "When does your leave start?")
	})
}

func TestNewCatalogFrom_MissingPrompt(t *testing.T) {
	_, err := NewCatalogFrom(map[string]string{Router: "x"})
	assert.Error(t, err)
}
