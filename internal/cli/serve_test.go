package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestServeCmd(t *testing.T) {
	t.Parallel()

	t.Run("returns when context ends", func(t *testing.T) {
		t.Parallel()

		env, m := newTestEnv(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := execute(ctx, ServeCmd(env), "--addr", "127.0.0.1:0"); err != nil {
			t.Fatalf("serve: %v", err)
		}
		if !strings.Contains(m.stderr.String(), "Serving on http://127.0.0.1:0 (provider: gemini)") {
			t.Errorf("stderr = %q", m.stderr.String())
		}
	})

	t.Run("invalid provider", func(t *testing.T) {
		t.Parallel()

		env, _ := newTestEnv(t)
		err := execute(context.Background(), ServeCmd(env), "--provider", "x")
		if !errors.Is(err, ErrInvalidProvider) {
			t.Errorf("error = %v, want ErrInvalidProvider", err)
		}
	})
}
