package llm

import (
	"context"
)

// Client turns a prompt into a structured result. Errors are *Error.
type Client interface {
	Complete(ctx context.Context, prompt string, schema Schema, out interface{}) error
}

// StructuredClient adapts an LLMProvider to Client under a Policy
type StructuredClient struct {
	provider LLMProvider
	name     string
	policy   *Policy
	opts     []Option
}

var _ Client = (*StructuredClient)(nil)

// NewStructuredClient wraps provider. Low temperature and JSON mode are the
// defaults; opts are applied after them.
func NewStructuredClient(provider LLMProvider, name string, policy *Policy, opts ...Option) *StructuredClient {
	if policy == nil {
		policy = DefaultPolicy()
	}
	base := []Option{WithTemperature(0.1), WithJSONMode()}
	return &StructuredClient{
		provider: provider,
		name:     name,
		policy:   policy,
		opts:     append(base, opts...),
	}
}

func (c *StructuredClient) Complete(ctx context.Context, prompt string, schema Schema, out interface{}) error {
	history := []Message{
		{Role: "system", Content: schema.Instruction()},
		{Role: "user", Content: prompt},
	}

	raw, err := c.policy.Do(ctx, c.name, func(ctx context.Context) (string, error) {
		return c.provider.Chat(ctx, history, c.opts...)
	})
	if err != nil {
		return err
	}

	if err := schema.Decode(raw, out); err != nil {
		return classify(c.name, err)
	}
	return nil
}
