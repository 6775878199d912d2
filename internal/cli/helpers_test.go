package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	store        *mockStore
	transports   *mockTransports
	stdout       *syncBuffer
	stderr       *syncBuffer
	sleeps       *[]time.Duration
}

// newTestEnv returns an Env wired to fresh mocks. The store holds a valid
// Gemini key, the output directory is a temp dir and waits are recorded
// instead of slept.
func newTestEnv(t *testing.T, opts ...EnvOption) (*Env, *testMocks) {
	t.Helper()

	outDir := t.TempDir()
	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	m := &testMocks{
		configLoader: &mockConfigLoader{LoadFunc: func() (config.Config, error) {
			return config.Config{OutputDir: outDir}, nil
		}},
		store:      newMockStore(config.KeyAPIKey, "AIzaStoredKey123"),
		transports: &mockTransports{},
		stdout:     &syncBuffer{},
		stderr:     &syncBuffer{},
		sleeps:     &sleeps,
	}

	base := []EnvOption{
		WithStdout(m.stdout),
		WithStderr(m.stderr),
		WithGetenv(func(string) string { return "" }),
		WithNow(func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }),
		WithConfigLoader(m.configLoader),
		WithStore(m.store),
		WithTransports(m.transports),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			mu.Lock()
			sleeps = append(sleeps, d)
			mu.Unlock()
			return ctx.Err()
		}),
	}
	return NewEnv(append(base, opts...)...), m
}

// outputDir returns the directory the mocked config points at.
func (m *testMocks) outputDir(t *testing.T) string {
	t.Helper()
	cfg, err := m.configLoader.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg.OutputDir
}

// writePNG writes a small valid PNG and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

// execute runs cmd with args and returns its error.
func execute(ctx context.Context, cmd *cobra.Command, args ...string) error {
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(ctx)
}

// filesIn lists the file names in dir.
func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
