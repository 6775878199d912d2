// Package gemini implements imagegen.Transport on the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Transport sends requests to the Gemini API.
type Transport struct {
	models *genai.Models
}

// Compile-time interface compliance check.
var _ imagegen.Transport = (*Transport)(nil)

// Option configures the underlying SDK client.
type Option func(*genai.ClientConfig)

// WithBaseURL overrides the API endpoint (for tests and proxies).
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = c
	}
}

// New creates a Transport bound to apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Transport, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Transport{models: client.Models}, nil
}

// Factory returns an imagegen.TransportFactory creating Gemini transports.
func Factory(opts ...Option) imagegen.TransportFactory {
	return imagegen.TransportFactoryFunc(func(ctx context.Context, apiKey string) (imagegen.Transport, error) {
		return New(ctx, apiKey, opts...)
	})
}

// Generate performs a single generateContent call.
func (t *Transport) Generate(ctx context.Context, req imagegen.Request) (*imagegen.Response, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	if req.Instruction != "" {
		parts = append(parts, genai.NewPartFromText(req.Instruction))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	model := req.Model
	cfg := &genai.GenerateContentConfig{}
	switch req.Output {
	case imagegen.OutputJSON:
		if model == "" {
			model = imagegen.TextModel
		}
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(req.Schema)
	default:
		if model == "" {
			model = imagegen.ImageModel
		}
		cfg.ResponseModalities = []string{string(genai.ModalityImage)}
	}

	resp, err := t.models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, classifyError(err)
	}
	return fromResponse(resp), nil
}

// fromResponse converts the SDK response into the provider-neutral shape.
func fromResponse(resp *genai.GenerateContentResponse) *imagegen.Response {
	out := &imagegen.Response{}
	if resp == nil {
		return out
	}
	for _, c := range resp.Candidates {
		if c == nil {
			continue
		}
		var cand imagegen.Candidate
		if c.Content != nil {
			for _, p := range c.Content.Parts {
				if p == nil {
					continue
				}
				part := imagegen.Part{Text: p.Text}
				if p.InlineData != nil {
					part.Inline = &media.Artifact{Data: p.InlineData.Data, MIMEType: p.InlineData.MIMEType}
				}
				cand.Parts = append(cand.Parts, part)
			}
		}
		out.Candidates = append(out.Candidates, cand)
	}
	return out
}

// toSchema converts an imagegen.Schema to the SDK representation.
func toSchema(s *imagegen.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Items:            toSchema(s.Items),
		Required:         s.Required,
		PropertyOrdering: s.Order,
	}
	switch s.Type {
	case imagegen.TypeObject:
		out.Type = genai.TypeObject
	case imagegen.TypeArray:
		out.Type = genai.TypeArray
	default:
		out.Type = genai.TypeString
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

// classifyError wraps SDK errors into apierr types at the adapter boundary.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var code int
	var msg string
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, msg = apiErrPtr.Code, apiErrPtr.Message
	default:
		return fmt.Errorf("gemini: %w", err)
	}
	if msg == "" {
		msg = err.Error()
	}

	return &apierr.StatusError{Code: code, Message: msg, Err: sentinelFor(code, msg)}
}

// sentinelFor maps an HTTP status to the matching sentinel.
// Gemini reports an invalid key as 400 INVALID_ARGUMENT.
func sentinelFor(code int, msg string) error {
	switch {
	case code == http.StatusBadRequest && strings.Contains(msg, "API key"):
		return apierr.ErrAuthFailed
	case code == http.StatusTooManyRequests:
		return apierr.ErrRateLimit
	case code == http.StatusServiceUnavailable:
		return apierr.ErrOverloaded
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apierr.ErrAuthFailed
	case code >= 400 && code < 500:
		return apierr.ErrBadRequest
	default:
		return nil
	}
}
