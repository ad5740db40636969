package predictor

import (
	"context"
	"testing"
	"time"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/forms"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func catalogForms() []forms.FormTemplate {
	// Deliberately out of creation order
	return []forms.FormTemplate{
		{ID: "expense", Title: "Expense Report", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "leave", Title: "Leave Request", CreatedAt: base},
		{ID: "travel", Title: "Travel Request", CreatedAt: base.Add(time.Hour)},
	}
}

func newPredictor(t *testing.T, client llm.Client) *Predictor {
	t.Helper()
	catalog, err := prompt.NewCatalog()
	require.NoError(t, err)
	return New(client, catalog, DefaultThresholds(), DefaultTopN, logger.NewNopLogger())
}

func TestThresholds_BandOf(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		confidence float64
		expected   Band
	}{
		{0.95, BandHigh},
		{0.8001, BandHigh},
		{0.80, BandMedium},
		{0.65, BandMedium},
		{0.50, BandMedium},
		{0.4999, BandLow},
		{0, BandLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, th.BandOf(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestPredict_Bands(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		band       Band
		formID     string
		confidence float64
	}{
		{
			name:       "high",
			reply:      `{"scores":[{"form_id":"leave","confidence":0.92,"reason":"time off"}]}`,
			band:       BandHigh,
			formID:     "leave",
			confidence: 0.92,
		},
		{
			name:       "medium",
			reply:      `{"scores":[{"form_id":"travel","confidence":0.65}]}`,
			band:       BandMedium,
			formID:     "travel",
			confidence: 0.65,
		},
		{
			name:       "exactly low threshold is medium",
			reply:      `{"scores":[{"form_id":"travel","confidence":0.5}]}`,
			band:       BandMedium,
			formID:     "travel",
			confidence: 0.5,
		},
		{
			name:       "low has no assignment",
			reply:      `{"scores":[{"form_id":"expense","confidence":0.3}]}`,
			band:       BandLow,
			formID:     "",
			confidence: 0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := llmtest.NewClient().On(Schema.Name, llmtest.JSON(tt.reply))
			p := newPredictor(t, client)

			pred, err := p.Predict(context.Background(), "msg", catalogForms())

			require.NoError(t, err)
			assert.Equal(t, tt.band, pred.Band)
			assert.Equal(t, tt.formID, pred.FormID)
			assert.InDelta(t, tt.confidence, pred.Confidence, 1e-9)
			assert.Equal(t, tt.formID, pred.Chain.FinalResult)
		})
	}
}

func TestPredict_TiesBreakByCreationOrder(t *testing.T) {
	reply := `{"scores":[
		{"form_id":"expense","confidence":0.4},
		{"form_id":"travel","confidence":0.9},
		{"form_id":"leave","confidence":0.9}
	]}`
	client := llmtest.NewClient().On(Schema.Name, llmtest.JSON(reply))
	p := newPredictor(t, client)

	for i := 0; i < 5; i++ {
		pred, err := p.Predict(context.Background(), "request", catalogForms())
		require.NoError(t, err)

		require.Len(t, pred.Candidates, 3)
		assert.Equal(t, "leave", pred.FormID)
		assert.Equal(t, []string{"leave", "travel", "expense"}, ids(pred.Candidates))
		assert.Equal(t, BandHigh, pred.Band)
	}
}

func TestPredict_UnknownAndMissingScores(t *testing.T) {
	reply := `{"scores":[{"form_id":"ghost","confidence":0.99},{"form_id":"travel","confidence":0.2}]}`
	client := llmtest.NewClient().On(Schema.Name, llmtest.JSON(reply))
	p := newPredictor(t, client)

	pred, err := p.Predict(context.Background(), "hmm", catalogForms())

	require.NoError(t, err)
	assert.Equal(t, BandLow, pred.Band)
	assert.Equal(t, []string{"travel", "leave", "expense"}, ids(pred.Candidates))
	assert.Zero(t, pred.Candidates[1].Confidence)
}

func TestPredict_TopNLimit(t *testing.T) {
	catalog, err := prompt.NewCatalog()
	require.NoError(t, err)
	client := llmtest.NewClient().On(Schema.Name, llmtest.JSON(`{"scores":[]}`))
	p := New(client, catalog, DefaultThresholds(), 2, logger.NewNopLogger())

	pred, err := p.Predict(context.Background(), "x", catalogForms())

	require.NoError(t, err)
	assert.Len(t, pred.Candidates, 2)
}

func TestPredict_MalformedOutputMeansClarification(t *testing.T) {
	client := llmtest.NewClient().On(Schema.Name, llmtest.JSON(`no idea`))
	p := newPredictor(t, client)

	pred, err := p.Predict(context.Background(), "x", catalogForms())

	require.NoError(t, err)
	assert.Equal(t, BandLow, pred.Band)
	assert.Empty(t, pred.FormID)
	assert.Equal(t, []string{"leave", "travel", "expense"}, ids(pred.Candidates))
}

func TestPredict_ProviderErrorIsReturned(t *testing.T) {
	client := llmtest.NewClient().On(Schema.Name, llmtest.Fail(llm.KindTimeout))
	p := newPredictor(t, client)

	pred, err := p.Predict(context.Background(), "x", catalogForms())

	assert.Nil(t, pred)
	require.Error(t, err)
	assert.Equal(t, llm.KindTimeout, llm.KindOf(err))
}

func TestPredict_NoForms(t *testing.T) {
	client := llmtest.NewClient()
	p := newPredictor(t, client)

	pred, err := p.Predict(context.Background(), "x", nil)

	require.NoError(t, err)
	assert.Equal(t, BandLow, pred.Band)
	assert.Zero(t, client.CallCount(Schema.Name))
}

func TestFullList(t *testing.T) {
	assert.Equal(t, []string{"leave", "travel", "expense"}, ids(FullList(catalogForms())))
}

func ids(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.FormID
	}
	return out
}
