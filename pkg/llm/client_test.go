package llm_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"formchat-be/pkg/llm"
	"formchat-be/pkg/llm/llmtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type intentOut struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

var intentSchema = llm.Schema{Name: "intent", Required: []string{"intent", "confidence"}}

func fastPolicy(retries int) *llm.Policy {
	p := llm.NewPolicy(time.Second, retries, 0, 1)
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 2 * time.Millisecond
	return p
}

func TestSchemaDecode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantErr  bool
		expected intentOut
	}{
		{
			name:     "plain object",
			raw:      `{"intent":"form_filling","confidence":0.9}`,
			expected: intentOut{Intent: "form_filling", Confidence: 0.9},
		},
		{
			name:     "wrapped in prose and fences",
			raw:      "Sure!\n```json\n{\"intent\":\"general_query\",\"confidence\":0.7}\n```",
			expected: intentOut{Intent: "general_query", Confidence: 0.7},
		},
		{name: "missing key", raw: `{"intent":"form_filling"}`, wantErr: true},
		{name: "null key", raw: `{"intent":"form_filling","confidence":null}`, wantErr: true},
		{name: "no json", raw: `I think you want a form`, wantErr: true},
		{name: "wrong type", raw: `{"intent":"x","confidence":"high"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out intentOut
			err := intentSchema.Decode(tt.raw, &out)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, llm.KindMalformedOutput, llm.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestStructuredClient_RetriesTransientErrors(t *testing.T) {
	provider := &llmtest.Provider{Replies: []llmtest.Reply{
		{Err: llm.NewError(llm.KindFromStatus(http.StatusTooManyRequests), "fake", errors.New("429"))},
		{Err: llm.NewError(llm.KindProviderError, "fake", errors.New("502"))},
		{Raw: `{"intent":"form_filling","confidence":0.95}`},
	}}
	client := llm.NewStructuredClient(provider, "fake", fastPolicy(2))

	var out intentOut
	err := client.Complete(context.Background(), "I need leave", intentSchema, &out)

	require.NoError(t, err)
	assert.Equal(t, 3, provider.Attempts())
	assert.Equal(t, "form_filling", out.Intent)
}

func TestStructuredClient_GivesUpAfterMaxRetries(t *testing.T) {
	provider := &llmtest.Provider{Replies: []llmtest.Reply{
		{Err: errors.New("connection reset")},
		{Err: errors.New("connection reset")},
		{Err: errors.New("connection reset")},
		{Raw: `{"intent":"form_filling","confidence":0.95}`},
	}}
	client := llm.NewStructuredClient(provider, "fake", fastPolicy(2))

	var out intentOut
	err := client.Complete(context.Background(), "hello", intentSchema, &out)

	require.Error(t, err)
	assert.Equal(t, llm.KindProviderError, llm.KindOf(err))
	assert.Equal(t, 3, provider.Attempts())

	var llmErr *llm.Error
	assert.True(t, errors.As(err, &llmErr))
}

func TestStructuredClient_MalformedOutputIsNotRetried(t *testing.T) {
	provider := &llmtest.Provider{Replies: []llmtest.Reply{
		{Raw: "not json at all"},
		{Raw: `{"intent":"form_filling","confidence":0.95}`},
	}}
	client := llm.NewStructuredClient(provider, "fake", fastPolicy(2))

	var out intentOut
	err := client.Complete(context.Background(), "hello", intentSchema, &out)

	require.Error(t, err)
	assert.Equal(t, llm.KindMalformedOutput, llm.KindOf(err))
	assert.Equal(t, 1, provider.Attempts())
}

func TestStructuredClient_SendsSchemaInstruction(t *testing.T) {
	provider := &llmtest.Provider{Replies: []llmtest.Reply{{Raw: `{"intent":"a","confidence":1}`}}}
	client := llm.NewStructuredClient(provider, "fake", fastPolicy(0))

	var out intentOut
	require.NoError(t, client.Complete(context.Background(), "route this", intentSchema, &out))

	require.Len(t, provider.Seen, 1)
	history := provider.Seen[0]
	require.Len(t, history, 2)
	assert.Equal(t, "system", history[0].Role)
	assert.Contains(t, history[0].Content, "intent, confidence")
	assert.Equal(t, "route this", history[1].Content)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, llm.KindTimeout, llm.KindOf(context.DeadlineExceeded))
	assert.Equal(t, llm.KindProviderError, llm.KindOf(errors.New("boom")))
	assert.Equal(t, llm.KindRateLimited, llm.KindFromStatus(http.StatusTooManyRequests))
	assert.Equal(t, llm.KindTimeout, llm.KindFromStatus(http.StatusGatewayTimeout))
	assert.Equal(t, llm.KindProviderError, llm.KindFromStatus(http.StatusInternalServerError))
	assert.False(t, llm.KindMalformedOutput.Retryable())
}
