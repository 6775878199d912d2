package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/logging"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
)

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 2 * time.Minute

// Generator is the capability tool handlers depend on.
type Generator interface {
	GenerateImage(ctx context.Context, req Request) (media.Artifact, error)
	GenerateJSON(ctx context.Context, req Request, v any) error
}

// Client sends requests through a Transport with credential resolution and
// retry. The credential is resolved and the transport created on every
// attempt, so a key changed while waiting is picked up by the next attempt.
type Client struct {
	factory   TransportFactory
	creds     credential.Provider
	policy    apierr.Policy
	timeout   time.Duration
	retryOpts []apierr.RetryOption
	logger    logging.Logger
}

// Compile-time interface compliance check.
var _ Generator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithPolicy sets the retry policy.
func WithPolicy(p apierr.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithTimeout sets the per-attempt timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetryOptions forwards options to apierr.RetryWithBackoff.
func WithRetryOptions(opts ...apierr.RetryOption) Option {
	return func(c *Client) {
		c.retryOpts = append(c.retryOpts, opts...)
	}
}

// WithLogger sets the logger used by the client and its retry loop.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client.
func NewClient(factory TransportFactory, creds credential.Provider, opts ...Option) *Client {
	c := &Client{
		factory: factory,
		creds:   creds,
		policy:  apierr.DefaultPolicy(),
		timeout: DefaultTimeout,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate performs req with retry and returns the raw response.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	return c.do(ctx, req, func(r *Response) (*Response, error) { return r, nil })
}

// GenerateImage performs req and extracts the generated image.
func (c *Client) GenerateImage(ctx context.Context, req Request) (media.Artifact, error) {
	req.Output = OutputImage
	resp, err := c.do(ctx, req, func(r *Response) (*Response, error) {
		if _, err := Extract(r); err != nil {
			return nil, err
		}
		return r, nil
	})
	if err != nil {
		return media.Artifact{}, err
	}
	return Extract(resp)
}

// GenerateJSON performs req and decodes the JSON reply into v.
func (c *Client) GenerateJSON(ctx context.Context, req Request, v any) error {
	if req.Schema == nil {
		return errors.New("structured request requires a schema")
	}
	req.Output = OutputJSON
	resp, err := c.do(ctx, req, func(r *Response) (*Response, error) { return r, nil })
	if err != nil {
		return err
	}
	text, err := ExtractText(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFence(text)), v); err != nil {
		return fmt.Errorf("decode structured response: %w", err)
	}
	return nil
}

// do runs one retried call. check validates a response inside the retry
// loop so fatal extraction failures stop it without waiting.
func (c *Client) do(ctx context.Context, req Request, check func(*Response) (*Response, error)) (*Response, error) {
	opts := append([]apierr.RetryOption{apierr.WithLogger(c.logger)}, c.retryOpts...)
	return apierr.RetryWithBackoff(ctx, c.policy, func(ctx context.Context) (*Response, error) {
		resp, err := c.attempt(ctx, req)
		if err != nil {
			return nil, err
		}
		return check(resp)
	}, opts...)
}

// attempt resolves the credential and performs a single call.
func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	key, err := c.creds.Resolve()
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	transport, err := c.factory.NewTransport(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	c.logger.Debugf("sending %s request to %s with %d image(s)", req.Output, req.Model, len(req.Images))
	resp, err := transport.Generate(ctx, req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apierr.ErrTimeout) {
			return nil, fmt.Errorf("%w after %s: %w", apierr.ErrTimeout, c.timeout, err)
		}
		return nil, err
	}
	return resp, nil
}

// stripFence removes a surrounding ```json ... ``` block if present.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
