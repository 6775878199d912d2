package interrupt_test

// Notes:
// - Tests use black-box approach via interrupt_test package
// - All tests inject dependencies via NewHandlerWithOptions for deterministic behavior
// - Time manipulation: nowFunc is injected to control interruptWindow calculation
// - Signal synchronization: ctx.Done() or polling confirms a signal was processed
//
// Thread-safety note:
// - bytes.Buffer is NOT thread-safe, so we use syncBuffer in tests

import (
	"bytes"
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/interrupt"
)

// syncBuffer is a thread-safe bytes.Buffer for testing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *syncBuffer) Contains(substr string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Contains(b.buf.Bytes(), []byte(substr))
}

// clock returns base on the first call and base+later afterwards.
func clock(later time.Duration) func() time.Time {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	calls := 0
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(later)
	}
}

// waitFor polls cond for up to 200ms.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(200 * time.Millisecond)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// ---------------------------------------------------------------------------
// TestNewHandler - Default constructor
// ---------------------------------------------------------------------------

func TestNewHandler(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandler(context.Background(), interrupt.StopAfterTask)
	if h == nil || ctx == nil {
		t.Fatal("NewHandler returned nil")
	}

	select {
	case <-ctx.Done():
		t.Fatal("context should not be canceled before any signal")
	default:
	}
	if h.WasInterrupted() || h.Stopping() || h.Aborted() {
		t.Error("fresh handler must report no interrupt")
	}

	h.Stop()
	if ctx.Err() == nil {
		t.Error("Stop should release the context")
	}
}

func TestBehaviorString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		b    interrupt.Behavior
		want string
	}{
		{interrupt.Cancel, "Cancel"},
		{interrupt.StopAfterTask, "StopAfterTask"},
		{interrupt.Behavior(9), "Behavior(9)"},
	}
	for _, tt := range tests {
		if got := tt.b.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestHandler_FirstInterrupt - per Behavior
// ---------------------------------------------------------------------------

func TestHandler_FirstInterrupt(t *testing.T) {
	t.Parallel()

	t.Run("stop after task keeps context alive", func(t *testing.T) {
		t.Parallel()

		sigCh := make(chan os.Signal, 2)
		var stderr syncBuffer
		h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
			SigCh:    sigCh,
			Behavior: interrupt.StopAfterTask,
			Stderr:   &stderr,
		})
		defer h.Stop()

		sigCh <- os.Interrupt
		waitFor(t, "stop flag", h.Stopping)

		if ctx.Err() != nil {
			t.Error("context must stay live so the current task can finish")
		}
		if !stderr.Contains("Press Ctrl+C again to abort") {
			t.Errorf("stderr = %q", stderr.String())
		}
	})

	t.Run("cancel cancels context", func(t *testing.T) {
		t.Parallel()

		sigCh := make(chan os.Signal, 2)
		h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
			SigCh:  sigCh,
			Stderr: &syncBuffer{},
		})
		defer h.Stop()

		sigCh <- os.Interrupt

		select {
		case <-ctx.Done():
		case <-time.After(200 * time.Millisecond):
			t.Fatal("context should be canceled after first signal")
		}
		if !h.WasInterrupted() {
			t.Error("WasInterrupted should be true after first signal")
		}
	})
}

// ---------------------------------------------------------------------------
// TestHandler_DoubleInterrupt
// ---------------------------------------------------------------------------

func TestHandler_DoubleInterruptWithinWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var stderr syncBuffer
	var exitCode atomic.Int32
	exitCode.Store(-1)

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		Behavior: interrupt.StopAfterTask,
		ExitFunc: func(code int) { exitCode.Store(int32(code)) },
		NowFunc:  clock(time.Second),
		Stderr:   &stderr,
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitFor(t, "stop flag", h.Stopping)
	sigCh <- os.Interrupt
	waitFor(t, "exit", func() bool { return exitCode.Load() != -1 })

	if got := exitCode.Load(); got != interrupt.ExitInterrupt {
		t.Errorf("exitFunc called with %d, want 130", got)
	}
	if ctx.Err() == nil {
		t.Error("abort must cancel the context")
	}
	if !h.Aborted() {
		t.Error("Aborted should be true")
	}
	if !stderr.Contains("Aborted.") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestHandler_DoubleInterruptOutsideWindow(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	var exitCalled atomic.Bool

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{
		SigCh:    sigCh,
		Behavior: interrupt.StopAfterTask,
		ExitFunc: func(int) { exitCalled.Store(true) },
		NowFunc:  clock(3 * time.Second),
		Stderr:   &syncBuffer{},
	})
	defer h.Stop()

	sigCh <- os.Interrupt
	waitFor(t, "stop flag", h.Stopping)
	sigCh <- os.Interrupt
	time.Sleep(50 * time.Millisecond)

	if exitCalled.Load() {
		t.Error("exitFunc should NOT be called when second signal is outside window")
	}
	if ctx.Err() != nil || h.Aborted() {
		t.Error("late second signal must not abort")
	}
}

// ---------------------------------------------------------------------------
// TestHandler_Stop - Prevents further signal processing
// ---------------------------------------------------------------------------

func TestHandler_Stop(t *testing.T) {
	t.Parallel()

	sigCh := make(chan os.Signal, 2)
	h, _ := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{SigCh: sigCh})

	h.Stop()
	sigCh <- os.Interrupt
	time.Sleep(50 * time.Millisecond)

	if h.WasInterrupted() {
		t.Error("WasInterrupted should be false after Stop")
	}
	h.Stop() // idempotent
}

func TestHandler_NilSigCh(t *testing.T) {
	t.Parallel()

	h, ctx := interrupt.NewHandlerWithOptions(context.Background(), interrupt.Options{})
	defer h.Stop()

	if ctx == nil {
		t.Fatal("context should not be nil")
	}
	if h.Stopping() {
		t.Error("Stopping should be false with nil sigCh")
	}
}
