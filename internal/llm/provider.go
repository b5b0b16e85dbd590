// Package llm talks to hosted language models. Providers answer a single
// prompt with JSON checked against the request's schema; NewProvider wraps
// them with retry and request logging.
package llm

import (
	"context"
	"encoding/json"
)

const defaultMaxTokens = 1024

// Provider generates one structured completion per call.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, which may differ from the model
	// reported in a Response.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string

	// Schema, when set, asks the provider for JSON and is used to validate
	// the reply. Without it Content is whatever text the model produced.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

func (r Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return defaultMaxTokens
}

type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// completion is what a backend pulled out of its SDK response.
type completion struct {
	text  string
	model string
	stop  StopReason
	usage Usage
}

// finish turns a completion into a Response. A reply cut off at the token
// limit cannot satisfy a schema and is reported as truncated.
func finish(req Request, c completion) (*Response, error) {
	content := json.RawMessage(c.text)
	if req.Schema != nil {
		if c.stop == StopMaxTokens {
			return nil, &Error{Kind: KindTruncated, Content: content}
		}
		if err := req.Schema.Validate(content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: c.usage, Model: c.model, StopReason: c.stop}, nil
}

// resolveModel maps a short alias to a provider model id. Unknown names
// pass through so full ids can be configured directly.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

type purposeKey struct{}

// WithPurpose labels the LLM calls made with ctx for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok {
		return v
	}
	return "unknown"
}
