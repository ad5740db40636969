package openai

import (
	"context"
	"errors"
	"fmt"

	"formchat-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// Provider talks to OpenAI or any OpenAI-compatible router
// (Hugging Face router, vLLM, LM Studio) through go-openai.
type Provider struct {
	name   string
	client *goopenai.Client
	model  string
}

var _ llm.LLMProvider = (*Provider)(nil)

// NewProvider builds a provider. An empty baseURL targets api.openai.com.
func NewProvider(name, apiKey, baseURL, model string) *Provider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if name == "" {
		name = "openai"
	}
	return &Provider{
		name:   name,
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.ApplyOptions(llm.Options{Model: p.model, MaxTokens: 500}, options...)

	messages := make([]goopenai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "model" {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	req := goopenai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
		MaxTokens:   opts.MaxTokens,
	}
	if opts.JSONMode {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.wrap(err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.NewError(llm.KindProviderError, p.name, fmt.Errorf("empty choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: goopenai.ChatMessageRoleUser, Content: prompt}}, options...)
}

func (p *Provider) wrap(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return llm.NewError(llm.KindFromStatus(apiErr.HTTPStatusCode), p.name, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return llm.NewError(llm.KindFromStatus(reqErr.HTTPStatusCode), p.name, err)
	}
	return llm.NewError(llm.KindOf(err), p.name, err)
}
