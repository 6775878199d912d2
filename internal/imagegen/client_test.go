package imagegen_test

// Coverage Notes:
// - Transports are scripted fakes; provider adapters are tested in their own packages.
// - Retry waits are captured with apierr.WithSleep, nothing actually sleeps.

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
)

// scriptedTransport returns its steps in order, repeating the last one.
type scriptedTransport struct {
	mu    sync.Mutex
	steps []step
	calls int
	keys  []string
	reqs  []imagegen.Request
}

type step struct {
	resp *imagegen.Response
	err  error
}

func (s *scriptedTransport) factory() imagegen.TransportFactory {
	return imagegen.TransportFactoryFunc(func(_ context.Context, apiKey string) (imagegen.Transport, error) {
		s.mu.Lock()
		s.keys = append(s.keys, apiKey)
		s.mu.Unlock()
		return s, nil
	})
}

func (s *scriptedTransport) Generate(_ context.Context, req imagegen.Request) (*imagegen.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i].resp, s.steps[i].err
}

func noSleep(waits *[]time.Duration) apierr.RetryOption {
	return apierr.WithSleep(func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	})
}

// ---------------------------------------------------------------------------
// TestClientGenerateImage
// ---------------------------------------------------------------------------

func TestClientGenerateImage(t *testing.T) {
	t.Parallel()

	t.Run("retries quota then returns image", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{
			{err: &apierr.StatusError{Code: 429, Message: "RESOURCE_EXHAUSTED"}},
			{err: &apierr.StatusError{Code: 429, Message: "RESOURCE_EXHAUSTED"}},
			{resp: response(inline("img", "image/png"))},
		}}
		var waits []time.Duration
		c := imagegen.NewClient(tr.factory(), credential.Static("key-1234567890"),
			imagegen.WithPolicy(apierr.Policy{MaxRetries: 5, BaseDelay: time.Second}),
			imagegen.WithRetryOptions(noSleep(&waits)))

		got, err := c.GenerateImage(context.Background(), imagegen.Request{Model: imagegen.ImageModel, Instruction: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got.Data) != "img" {
			t.Errorf("Data = %q, want img", got.Data)
		}
		if tr.calls != 3 {
			t.Errorf("calls = %d, want 3", tr.calls)
		}
		if len(waits) != 2 || waits[0] != time.Second || waits[1] != 2*time.Second {
			t.Errorf("waits = %v, want [1s 2s]", waits)
		}
	})

	t.Run("missing credential fails without calling the provider", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(inline("img", "image/png"))}}}
		c := imagegen.NewClient(tr.factory(), credential.Static(""))

		_, err := c.GenerateImage(context.Background(), imagegen.Request{})
		if !errors.Is(err, apierr.ErrMissingCredential) {
			t.Errorf("error = %v, want ErrMissingCredential", err)
		}
		if tr.calls != 0 {
			t.Errorf("calls = %d, want 0", tr.calls)
		}
	})

	t.Run("no image data is not retried", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(text("sorry"))}}}
		var waits []time.Duration
		c := imagegen.NewClient(tr.factory(), credential.Static("key"), imagegen.WithRetryOptions(noSleep(&waits)))

		_, err := c.GenerateImage(context.Background(), imagegen.Request{})
		if !errors.Is(err, apierr.ErrNoImageData) {
			t.Errorf("error = %v, want ErrNoImageData", err)
		}
		if tr.calls != 1 || len(waits) != 0 {
			t.Errorf("calls = %d, waits = %v, want 1 call and no wait", tr.calls, waits)
		}
	})

	t.Run("credential resolved on every attempt", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{
			{err: &apierr.StatusError{Code: 503, Message: "overloaded"}},
			{resp: response(inline("img", "image/png"))},
		}}
		keys := []string{"first-key", "second-key"}
		n := 0
		creds := credential.ProviderFunc(func() (string, error) {
			k := keys[n]
			n++
			return k, nil
		})
		var waits []time.Duration
		c := imagegen.NewClient(tr.factory(), creds, imagegen.WithRetryOptions(noSleep(&waits)))

		if _, err := c.GenerateImage(context.Background(), imagegen.Request{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tr.keys) != 2 || tr.keys[0] != "first-key" || tr.keys[1] != "second-key" {
			t.Errorf("keys = %v, want [first-key second-key]", tr.keys)
		}
	})

	t.Run("exhausted overload gives up", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{err: &apierr.StatusError{Code: 503}}}}
		var waits []time.Duration
		c := imagegen.NewClient(tr.factory(), credential.Static("key"),
			imagegen.WithPolicy(apierr.Policy{MaxRetries: 2, BaseDelay: time.Millisecond}),
			imagegen.WithRetryOptions(noSleep(&waits)))

		_, err := c.GenerateImage(context.Background(), imagegen.Request{})
		if !errors.Is(err, apierr.ErrGivenUp) {
			t.Errorf("error = %v, want ErrGivenUp", err)
		}
		if tr.calls != 3 {
			t.Errorf("calls = %d, want 3", tr.calls)
		}
	})

	t.Run("attempt timeout is fatal", func(t *testing.T) {
		t.Parallel()

		factory := imagegen.TransportFactoryFunc(func(context.Context, string) (imagegen.Transport, error) {
			return blockingTransport{}, nil
		})
		c := imagegen.NewClient(factory, credential.Static("key"), imagegen.WithTimeout(10*time.Millisecond))

		_, err := c.GenerateImage(context.Background(), imagegen.Request{})
		if !errors.Is(err, apierr.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("error = %v, want ErrTimeout wrapping deadline exceeded", err)
		}
	})

	t.Run("request forwarded with image output", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(inline("img", "image/png"))}}}
		c := imagegen.NewClient(tr.factory(), credential.Static("key"))

		req := imagegen.Request{Model: "m", Instruction: "do it", Output: imagegen.OutputJSON}
		if _, err := c.GenerateImage(context.Background(), req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tr.reqs[0]; got.Model != "m" || got.Instruction != "do it" || got.Output != imagegen.OutputImage {
			t.Errorf("forwarded request = %+v", got)
		}
	})
}

// blockingTransport waits until the context ends.
type blockingTransport struct{}

func (blockingTransport) Generate(ctx context.Context, _ imagegen.Request) (*imagegen.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

// ---------------------------------------------------------------------------
// TestClientGenerateJSON
// ---------------------------------------------------------------------------

func TestClientGenerateJSON(t *testing.T) {
	t.Parallel()

	schema := imagegen.Object(imagegen.Prop("prompts", imagegen.ArrayOf(imagegen.String())))

	t.Run("decodes reply", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(text(`{"prompts":["a","b"]}`))}}}
		c := imagegen.NewClient(tr.factory(), credential.Static("key"))

		var out struct{ Prompts []string }
		if err := c.GenerateJSON(context.Background(), imagegen.Request{Schema: schema}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Prompts) != 2 || out.Prompts[1] != "b" {
			t.Errorf("decoded = %+v", out)
		}
		if tr.reqs[0].Output != imagegen.OutputJSON {
			t.Errorf("Output = %v, want json", tr.reqs[0].Output)
		}
	})

	t.Run("strips markdown fence", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(text("```json\n{\"prompts\":[\"a\"]}\n```"))}}}
		c := imagegen.NewClient(tr.factory(), credential.Static("key"))

		var out struct{ Prompts []string }
		if err := c.GenerateJSON(context.Background(), imagegen.Request{Schema: schema}, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Prompts) != 1 {
			t.Errorf("decoded = %+v", out)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		tr := &scriptedTransport{steps: []step{{resp: response(text("not json"))}}}
		c := imagegen.NewClient(tr.factory(), credential.Static("key"))

		var out map[string]any
		if err := c.GenerateJSON(context.Background(), imagegen.Request{Schema: schema}, &out); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("schema required", func(t *testing.T) {
		t.Parallel()

		c := imagegen.NewClient((&scriptedTransport{}).factory(), credential.Static("key"))
		var out map[string]any
		if err := c.GenerateJSON(context.Background(), imagegen.Request{}, &out); err == nil {
			t.Error("expected error without schema")
		}
	})
}
