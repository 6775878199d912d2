// Package openaiimg implements imagegen.Transport on the OpenAI API.
//
// Image requests use the image generation endpoint when no input image is
// given and the image edit endpoint for exactly one input image. Structured
// requests use chat completions with a strict JSON schema.
package openaiimg

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// Default models.
const (
	ImageModel = "gpt-image-1"
	TextModel  = openai.GPT4oMini
)

// imageSize is requested for every generated image.
const imageSize = "1024x1024"

// imageAPI is the subset of *openai.Client used by Transport.
type imageAPI interface {
	CreateImage(ctx context.Context, req openai.ImageRequest) (openai.ImageResponse, error)
	CreateEditImage(ctx context.Context, req openai.ImageEditRequest) (openai.ImageResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Compile-time interface compliance check.
var _ imageAPI = (*openai.Client)(nil)

// Transport sends requests to OpenAI.
type Transport struct {
	client     imageAPI
	imageModel string
	textModel  string
}

// Compile-time interface compliance check.
var _ imagegen.Transport = (*Transport)(nil)

// Option configures a Transport.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	imageModel string
	textModel  string
}

// WithBaseURL overrides the API endpoint (for tests and proxies).
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithModels overrides the image and text models. Empty values keep the defaults.
func WithModels(image, text string) Option {
	return func(o *options) {
		if image != "" {
			o.imageModel = image
		}
		if text != "" {
			o.textModel = text
		}
	}
}

// New creates a Transport bound to apiKey.
func New(apiKey string, opts ...Option) *Transport {
	o := options{imageModel: ImageModel, textModel: TextModel}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.httpClient != nil {
		cfg.HTTPClient = o.httpClient
	}
	return &Transport{
		client:     openai.NewClientWithConfig(cfg),
		imageModel: o.imageModel,
		textModel:  o.textModel,
	}
}

// Factory returns an imagegen.TransportFactory creating OpenAI transports.
func Factory(opts ...Option) imagegen.TransportFactory {
	return imagegen.TransportFactoryFunc(func(_ context.Context, apiKey string) (imagegen.Transport, error) {
		return New(apiKey, opts...), nil
	})
}

// Generate performs a single call. Gemini model names in req.Model are
// ignored in favor of the configured OpenAI models.
func (t *Transport) Generate(ctx context.Context, req imagegen.Request) (*imagegen.Response, error) {
	if req.Output == imagegen.OutputJSON {
		return t.generateJSON(ctx, req)
	}
	return t.generateImage(ctx, req)
}

func (t *Transport) generateImage(ctx context.Context, req imagegen.Request) (*imagegen.Response, error) {
	var (
		resp openai.ImageResponse
		err  error
	)
	switch len(req.Images) {
	case 0:
		resp, err = t.client.CreateImage(ctx, openai.ImageRequest{
			Prompt: req.Instruction,
			Model:  t.imageModel,
			N:      1,
			Size:   imageSize,
		})
	case 1:
		resp, err = t.edit(ctx, req.Instruction, req.Images[0])
	default:
		return nil, fmt.Errorf("openai accepts at most one input image, got %d: %w", len(req.Images), apierr.ErrUnsupported)
	}
	if err != nil {
		return nil, classifyError(err)
	}

	out := &imagegen.Response{}
	var cand imagegen.Candidate
	for _, d := range resp.Data {
		if d.B64JSON == "" {
			if d.RevisedPrompt != "" {
				cand.Parts = append(cand.Parts, imagegen.Part{Text: d.RevisedPrompt})
			}
			continue
		}
		data, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
		cand.Parts = append(cand.Parts, imagegen.Part{Inline: &media.Artifact{Data: data, MIMEType: media.DefaultMIMEType}})
	}
	if len(resp.Data) > 0 {
		out.Candidates = append(out.Candidates, cand)
	}
	return out, nil
}

// edit uploads img through a temporary file: the multipart upload needs a
// file name whose extension matches the content type.
func (t *Transport) edit(ctx context.Context, prompt string, img media.Image) (openai.ImageResponse, error) {
	f, err := os.CreateTemp("", "imaxai-*"+media.ExtensionFor(img.MIMEType))
	if err != nil {
		return openai.ImageResponse{}, fmt.Errorf("stage upload: %w", err)
	}
	defer func() {
		_ = f.Close()
		_ = os.Remove(f.Name())
	}()
	if _, err := f.Write(img.Data); err != nil {
		return openai.ImageResponse{}, fmt.Errorf("stage upload: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return openai.ImageResponse{}, fmt.Errorf("stage upload: %w", err)
	}

	return t.client.CreateEditImage(ctx, openai.ImageEditRequest{
		Image:  f,
		Prompt: prompt,
		Model:  t.imageModel,
		N:      1,
		Size:   imageSize,
	})
}

func (t *Transport) generateJSON(ctx context.Context, req imagegen.Request) (*imagegen.Response, error) {
	parts := make([]openai.ChatMessagePart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: img.DataURI(), Detail: openai.ImageURLDetailAuto},
		})
	}
	parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: req.Instruction})

	chatReq := openai.ChatCompletionRequest{
		Model: t.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
	}
	if req.Schema != nil {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "result",
				Schema: toDefinition(req.Schema),
				Strict: true,
			},
		}
	}

	resp, err := t.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classifyError(err)
	}

	out := &imagegen.Response{}
	for _, choice := range resp.Choices {
		out.Candidates = append(out.Candidates, imagegen.Candidate{
			Parts: []imagegen.Part{{Text: choice.Message.Content}},
		})
	}
	return out, nil
}

// toDefinition converts a schema for strict structured outputs, which
// require closed objects.
func toDefinition(s *imagegen.Schema) *jsonschema.Definition {
	if s == nil {
		return nil
	}
	d := &jsonschema.Definition{Required: s.Required}
	switch s.Type {
	case imagegen.TypeObject:
		d.Type = jsonschema.Object
		d.AdditionalProperties = false
		d.Properties = make(map[string]jsonschema.Definition, len(s.Properties))
		for name, p := range s.Properties {
			d.Properties[name] = *toDefinition(p)
		}
	case imagegen.TypeArray:
		d.Type = jsonschema.Array
		d.Items = toDefinition(s.Items)
	default:
		d.Type = jsonschema.String
	}
	return d
}

// classifyError wraps OpenAI errors into apierr types at the adapter boundary.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &apierr.StatusError{Code: apiErr.HTTPStatusCode, Message: apiErr.Message, Err: sentinelFor(apiErr.HTTPStatusCode, apiErr.Message)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &apierr.StatusError{Code: reqErr.HTTPStatusCode, Message: reqErr.Error(), Err: sentinelFor(reqErr.HTTPStatusCode, "")}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("openai: %w", err)
}

func sentinelFor(code int, msg string) error {
	switch code {
	case http.StatusTooManyRequests:
		return apierr.ErrRateLimit
	case http.StatusServiceUnavailable:
		return apierr.ErrOverloaded
	case http.StatusUnauthorized, http.StatusForbidden:
		return apierr.ErrAuthFailed
	case http.StatusBadRequest:
		if strings.Contains(strings.ToLower(msg), "api key") {
			return apierr.ErrAuthFailed
		}
		return apierr.ErrBadRequest
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return apierr.ErrTimeout
	default:
		return nil
	}
}
