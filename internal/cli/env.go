package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/gemini"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/openaiimg"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Persistence and providers
	ConfigLoader ConfigLoader
	Store        Store
	Transports   TransportFactories

	// Sleep replaces every wait (retry backoff and batch pacing). Nil waits for real.
	Sleep func(ctx context.Context, d time.Duration) error

	// DefaultAPIKey is the build-injected key used when neither the store
	// nor the environment holds one.
	DefaultAPIKey string
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// Store persists configuration values, including the user's API keys.
type Store interface {
	credential.Store
	Set(key, value string) error
	Unset(key string) error
	List() (map[string]string, error)
}

// TransportFactories selects the transport factory for a provider.
type TransportFactories interface {
	For(p Provider) imagegen.TransportFactory
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithStore sets the config store.
func WithStore(s Store) EnvOption {
	return func(e *Env) {
		e.Store = s
	}
}

// WithTransports sets the transport factories.
func WithTransports(t TransportFactories) EnvOption {
	return func(e *Env) {
		e.Transports = t
	}
}

// WithSleep sets the wait function.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) EnvOption {
	return func(e *Env) {
		e.Sleep = fn
	}
}

// WithDefaultAPIKey sets the build-injected fallback key.
func WithDefaultAPIKey(key string) EnvOption {
	return func(e *Env) {
		e.DefaultAPIKey = key
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Getenv:       os.Getenv,
		Now:          time.Now,
		ConfigLoader: &defaultConfigLoader{},
		Store:        config.FileStore{},
		Transports:   &defaultTransports{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultTransports implements TransportFactories with the provider SDK adapters.
type defaultTransports struct{}

func (defaultTransports) For(p Provider) imagegen.TransportFactory {
	if p.IsOpenAI() {
		return openaiimg.Factory()
	}
	return gemini.Factory()
}

// Compile-time interface verification.
var (
	_ ConfigLoader       = (*defaultConfigLoader)(nil)
	_ TransportFactories = (*defaultTransports)(nil)
	_ Store              = config.FileStore{}
)
