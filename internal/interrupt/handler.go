package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Behavior defines what happens on the first Ctrl+C.
type Behavior int

const (
	// Cancel cancels the handler context, aborting the in-flight request.
	Cancel Behavior = iota
	// StopAfterTask only raises the stop flag; a running batch finishes its
	// current task and halts before the next one.
	StopAfterTask
)

// String returns the string representation of the Behavior.
func (b Behavior) String() string {
	switch b {
	case Cancel:
		return "Cancel"
	case StopAfterTask:
		return "StopAfterTask"
	default:
		return fmt.Sprintf("Behavior(%d)", b)
	}
}

// ExitInterrupt is the exit code for interrupt (130 = 128 + SIGINT).
const ExitInterrupt = 130

// interruptWindow is the time window for a second Ctrl+C to trigger abort.
const interruptWindow = 2 * time.Second

const (
	stopMessage  = "\nStopping after the current task. Press Ctrl+C again to abort."
	abortMessage = "\nAborted."
)

// Handler manages interrupt handling with double Ctrl+C detection.
// The first Ctrl+C requests a stop (or cancels, per Behavior).
// A second Ctrl+C within the window cancels the context and exits.
type Handler struct {
	mu             sync.Mutex
	firstInterrupt time.Time
	interrupted    bool
	aborted        bool
	stopped        bool
	behavior       Behavior
	cancelFunc     context.CancelFunc
	done           chan struct{} // Signals listen goroutine to exit

	// Injected dependencies (for testing)
	exitFunc func(int)
	nowFunc  func() time.Time
	stderr   io.Writer
}

// Options holds injectable dependencies for testing.
type Options struct {
	SigCh    <-chan os.Signal
	Behavior Behavior
	ExitFunc func(int)
	NowFunc  func() time.Time
	// Stderr is the writer for user-facing messages.
	// Must be safe for concurrent writes.
	Stderr io.Writer
}

// NewHandler creates a handler that listens for SIGINT/SIGTERM.
// Returns the handler and a context canceled on abort (or on the first
// interrupt when b is Cancel).
func NewHandler(parent context.Context, b Behavior) (*Handler, context.Context) {
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return newHandler(parent, Options{SigCh: sigCh, Behavior: b})
}

// NewHandlerWithOptions creates a handler with injectable dependencies.
// Used by tests to inject mock signal channels, exit functions, and clocks.
func NewHandlerWithOptions(parent context.Context, opts Options) (*Handler, context.Context) {
	return newHandler(parent, opts)
}

func newHandler(parent context.Context, opts Options) (*Handler, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	exitFunc := opts.ExitFunc
	if exitFunc == nil {
		exitFunc = os.Exit
	}
	nowFunc := opts.NowFunc
	if nowFunc == nil {
		nowFunc = time.Now
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	h := &Handler{
		behavior:   opts.Behavior,
		cancelFunc: cancel,
		done:       make(chan struct{}),
		exitFunc:   exitFunc,
		nowFunc:    nowFunc,
		stderr:     stderr,
	}

	if opts.SigCh != nil {
		go h.listen(opts.SigCh)
	}

	return h, ctx
}

// listen handles incoming signals.
func (h *Handler) listen(sigCh <-chan os.Signal) {
	for {
		select {
		case <-h.done:
			return
		case _, ok := <-sigCh:
			if !ok {
				return
			}

			h.mu.Lock()
			if h.stopped {
				h.mu.Unlock()
				return
			}
			now := h.nowFunc()

			if h.interrupted && now.Sub(h.firstInterrupt) <= interruptWindow {
				h.aborted = true
				h.mu.Unlock()
				h.cancelFunc()
				fmt.Fprintln(h.stderr, abortMessage)
				h.exitFunc(ExitInterrupt)
				return // In case exitFunc doesn't actually exit (tests)
			}

			// First interrupt, or a later one outside the window: restart it.
			h.interrupted = true
			h.firstInterrupt = now
			behavior := h.behavior
			h.mu.Unlock()

			if behavior == Cancel {
				h.cancelFunc()
				continue
			}
			fmt.Fprintln(h.stderr, stopMessage)
		}
	}
}

// WasInterrupted returns true if at least one interrupt was received.
func (h *Handler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}

// Stopping reports whether a stop was requested. It is shaped for
// imagegen.BatchOptions.Stop.
func (h *Handler) Stopping() bool {
	return h.WasInterrupted()
}

// Aborted returns true after a double Ctrl+C.
func (h *Handler) Aborted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.aborted
}

// Stop cleans up the handler. Should be called when done.
func (h *Handler) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	signal.Reset(syscall.SIGINT, syscall.SIGTERM)
	close(h.done)
	h.cancelFunc()
}
