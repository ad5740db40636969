// Package llmtest provides scripted LLM doubles for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"formchat-be/pkg/llm"
)

// Reply is one scripted answer: raw model text or an error
type Reply struct {
	Raw string
	Err error
}

func JSON(raw string) Reply { return Reply{Raw: raw} }

func Fail(kind llm.ErrorKind) Reply {
	return Reply{Err: llm.NewError(kind, "fake", errors.New("scripted failure"))}
}

// Call records one Complete invocation
type Call struct {
	Schema string
	Prompt string
}

// Client replays replies per schema name, in order. When a queue runs dry
// the last reply is repeated; an unscripted schema is a provider error.
type Client struct {
	mu      sync.Mutex
	replies map[string][]Reply
	last    map[string]Reply
	calls   []Call
}

var _ llm.Client = (*Client)(nil)

func NewClient() *Client {
	return &Client{
		replies: make(map[string][]Reply),
		last:    make(map[string]Reply),
	}
}

// On queues replies for the schema with the given name
func (c *Client) On(schema string, replies ...Reply) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[schema] = append(c.replies[schema], replies...)
	return c
}

func (c *Client) Complete(ctx context.Context, prompt string, schema llm.Schema, out interface{}) error {
	c.mu.Lock()
	c.calls = append(c.calls, Call{Schema: schema.Name, Prompt: prompt})
	reply, ok := c.next(schema.Name)
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return llm.NewError(llm.KindTimeout, "fake", err)
	}
	if !ok {
		return llm.NewError(llm.KindProviderError, "fake", errors.New("no reply scripted for "+schema.Name))
	}
	if reply.Err != nil {
		return reply.Err
	}
	return schema.Decode(reply.Raw, out)
}

func (c *Client) next(name string) (Reply, bool) {
	queue := c.replies[name]
	if len(queue) == 0 {
		r, ok := c.last[name]
		return r, ok
	}
	r := queue[0]
	c.replies[name] = queue[1:]
	c.last[name] = r
	return r, true
}

// Calls returns the recorded invocations
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// CallCount counts invocations for one schema
func (c *Client) CallCount(schema string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Schema == schema {
			n++
		}
	}
	return n
}

// Provider is a scripted llm.LLMProvider
type Provider struct {
	mu      sync.Mutex
	Replies []Reply
	Seen    [][]llm.Message
}

var _ llm.LLMProvider = (*Provider)(nil)

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Seen = append(p.Seen, history)
	if len(p.Replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := p.Replies[0]
	p.Replies = p.Replies[1:]
	return r.Raw, r.Err
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// Attempts returns how many Chat calls were made
func (p *Provider) Attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Seen)
}
