package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is required")
	}
	cc := &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{client: client, model: resolveModel(cfg.Model, geminiModels)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	gc := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.maxTokens())}
	if req.Temperature > 0 {
		gc.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		gc.ResponseMIMEType = "application/json"
		gc.ResponseSchema = geminiSchema(req.Schema.Definition)
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), gc)
	if err != nil {
		return nil, geminiError(err)
	}

	c := completion{text: result.Text(), model: p.model, stop: StopEnd}
	if result.ModelVersion != "" {
		c.model = result.ModelVersion
	}
	if u := result.UsageMetadata; u != nil {
		c.usage = Usage{InputTokens: int(u.PromptTokenCount), OutputTokens: int(u.CandidatesTokenCount)}
	}
	if len(result.Candidates) > 0 && result.Candidates[0].FinishReason == "MAX_TOKENS" {
		c.stop = StopMaxTokens
	}
	return finish(req, c)
}

func (p *GeminiProvider) ModelID() string { return p.model }

// geminiSchema converts the JSON Schema subset used in this repo into
// Gemini's OpenAPI-style schema. genai type names are the upper-cased
// JSON Schema ones.
func geminiSchema(def map[string]any) *genai.Schema {
	s := &genai.Schema{}
	for key, v := range def {
		switch key {
		case "type":
			if t, ok := v.(string); ok {
				s.Type = genai.Type(strings.ToUpper(t))
			}
		case "description":
			s.Description, _ = v.(string)
		case "enum":
			s.Enum = stringList(v)
		case "required":
			s.Required = stringList(v)
		case "minLength":
			if n, ok := v.(int); ok {
				s.MinLength = genai.Ptr(int64(n))
			}
		case "items":
			if m, ok := v.(map[string]any); ok {
				s.Items = geminiSchema(m)
			}
		case "properties":
			props, _ := v.(map[string]any)
			s.Properties = make(map[string]*genai.Schema, len(props))
			for name, pv := range props {
				if m, ok := pv.(map[string]any); ok {
					s.Properties[name] = geminiSchema(m)
				}
			}
		}
	}
	return s
}

func stringList(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func geminiError(err error) error {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.Code, "", err)
	}
	return &Error{Kind: KindUnavailable, Err: err}
}
