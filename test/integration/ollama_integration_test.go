package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"formchat-be/internal/pkg/logger"
	"formchat-be/pkg/agent/prompt"
	"formchat-be/pkg/agent/router"
	"formchat-be/pkg/llm"
	"formchat-be/pkg/llm/ollama"
	"formchat-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs the router against a local Ollama. Set OLLAMA_BASE_URL and
// OLLAMA_MODEL to enable.
func TestRouter_AgainstOllama(t *testing.T) {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	model := os.Getenv("OLLAMA_MODEL")
	if baseURL == "" || model == "" {
		t.Skip("Skipping integration test: OLLAMA_BASE_URL / OLLAMA_MODEL not set")
	}
	if resp, err := http.Get(baseURL + "/api/tags"); err != nil {
		t.Skipf("Skipping integration test: Ollama unreachable: %v", err)
	} else {
		resp.Body.Close()
	}

	client := llm.NewStructuredClient(
		ollama.NewOllamaProvider(baseURL, model),
		"ollama",
		llm.NewPolicy(60*time.Second, 1, 0, 1),
	)
	catalog, err := prompt.NewCatalog()
	require.NoError(t, err)
	r := router.New(client, catalog, router.DefaultMinConfidence, logger.NewNopLogger())

	res := r.Classify(context.Background(), "I slipped in the warehouse and need to report it", router.Context{
		Stage: store.StageIdle,
	})

	t.Logf("intent=%s confidence=%.2f", res.Intent, res.Confidence)
	assert.Contains(t, []router.Intent{router.IntentFormFilling, router.IntentClarificationNeeded}, res.Intent)
	assert.NotEmpty(t, res.Chain.Steps)
}
