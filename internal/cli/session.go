package cli

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/format"
	"github.com/tuaneric255-blip/Imaxai/internal/imagegen"
	"github.com/tuaneric255-blip/Imaxai/internal/logging"
)

// genFlags are the flags shared by every command that calls the provider.
type genFlags struct {
	provider   string
	outputDir  string
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	verbose    bool
	logFile    string
}

// register adds the flags to fs.
func (f *genFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.provider, "provider", "", "Image provider: gemini, openai (default: config or gemini)")
	fs.StringVar(&f.outputDir, "output-dir", "", "Directory for generated files (default: config output-dir)")
	fs.IntVar(&f.maxRetries, "max-retries", apierr.DefaultMaxRetries, "Retries after a quota or overload failure")
	fs.DurationVar(&f.baseDelay, "base-delay", apierr.DefaultBaseDelay, "First backoff delay, doubled on each retry")
	fs.DurationVar(&f.timeout, "timeout", imagegen.DefaultTimeout, "Per-attempt request timeout")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Log debug details to stderr")
	fs.StringVar(&f.logFile, "log-file", "", "Also write JSON logs to this file (rotated)")
}

// session bundles what a generating command needs.
type session struct {
	provider  Provider
	outputDir string
	logger    logging.Logger
	gen       *imagegen.Client
	closeLog  func() error
}

// Close flushes the logger.
func (s *session) Close() {
	if s.closeLog != nil {
		_ = s.closeLog()
	}
}

// openSession resolves provider, output directory and credentials, and
// builds the retrying client.
func openSession(env *Env, f *genFlags) (*session, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}

	provider, err := resolveProvider(f.provider, cfg.Provider)
	if err != nil {
		return nil, err
	}

	outputDir := f.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if outputDir != "" {
		if outputDir, err = config.EnsureOutputDir(outputDir); err != nil {
			return nil, fmt.Errorf("invalid output-dir: %w", err)
		}
	}

	level := logging.LevelError
	if f.verbose {
		level = logging.LevelDebug
	}
	logger, closeLog := logging.New(logging.Options{Level: level, Console: env.Stderr, File: f.logFile})

	creds := credential.Resolver{
		Store:    env.Store,
		StoreKey: provider.StoreKey(),
		Default:  defaultKey(env, provider),
	}

	gen := imagegen.NewClient(env.Transports.For(provider), creds,
		imagegen.WithPolicy(apierr.Policy{MaxRetries: f.maxRetries, BaseDelay: f.baseDelay}),
		imagegen.WithTimeout(f.timeout),
		imagegen.WithLogger(logger),
		imagegen.WithRetryOptions(
			apierr.WithSleep(env.Sleep),
			apierr.WithObserver(retryReporter(env, f.maxRetries)),
		),
	)

	logger.Debugf("provider=%s output-dir=%q max-retries=%d base-delay=%s", provider, outputDir, f.maxRetries, f.baseDelay)
	return &session{
		provider:  provider,
		outputDir: outputDir,
		logger:    logger,
		gen:       gen,
		closeLog:  closeLog,
	}, nil
}

// resolveProvider picks the flag value, then the configured one, then gemini.
func resolveProvider(flag, configured string) (Provider, error) {
	name := flag
	if name == "" {
		name = configured
	}
	if name == "" {
		return GeminiProvider, nil
	}
	return ParseProvider(name)
}

// defaultKey returns the first key found in the provider's environment
// variables, then the build-injected key.
func defaultKey(env *Env, p Provider) string {
	for _, name := range p.EnvKeys() {
		if v := env.Getenv(name); v != "" {
			return v
		}
	}
	return env.DefaultAPIKey
}

// retryReporter prints each backoff wait so long quota waits do not look like a hang.
func retryReporter(env *Env, maxRetries int) func(apierr.Attempt) {
	return func(a apierr.Attempt) {
		reason := "Provider overloaded"
		if a.Class.Kind == apierr.KindQuota {
			reason = "Quota limit reached"
		}
		fmt.Fprintf(env.Stderr, "  %s, retrying in %s (retry %d/%d)...\n",
			reason, format.Wait(a.Wait), a.Index+1, maxRetries)
	}
}
