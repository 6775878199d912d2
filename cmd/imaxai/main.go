package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
	"github.com/tuaneric255-blip/Imaxai/internal/cli"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
	"github.com/tuaneric255-blip/Imaxai/internal/interrupt"
	"github.com/tuaneric255-blip/Imaxai/internal/media"
	"github.com/tuaneric255-blip/Imaxai/internal/tool"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	// defaultAPIKey is the fallback key shipped with a build, used when
	// neither the config file nor the environment provides one.
	defaultAPIKey = ""
)

// Exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitGeneration = 5
	ExitInterrupt  = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// SIGINT is handled per command so a batch can stop between shots.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	// Create the CLI environment with production defaults.
	env := cli.NewEnv(cli.WithDefaultAPIKey(defaultAPIKey))

	// Root command.
	rootCmd := &cobra.Command{
		Use:     "imaxai",
		Short:   "AI image tools: face-safe portraits, restoration, try-on, lookbooks",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	// Subcommands.
	rootCmd.AddCommand(cli.ToolsCmd(env))
	rootCmd.AddCommand(cli.RunCmd(env))
	rootCmd.AddCommand(cli.LookbookCmd(env))
	rootCmd.AddCommand(cli.ServeCmd(env))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apierr.Friendly(err))
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	// Usage errors (ExitUsage = 2) with a sentinel.
	if errors.Is(err, cli.ErrInvalidAssignment) || errors.Is(err, cli.ErrUnknownConfigKey) {
		return ExitUsage
	}

	// Setup errors (ExitSetup = 3).
	if errors.Is(err, apierr.ErrMissingCredential) || errors.Is(err, apierr.ErrAuthFailed) ||
		errors.Is(err, credential.ErrKeyTooShort) || errors.Is(err, cli.ErrInvalidProvider) {
		return ExitSetup
	}

	// Validation errors (ExitValidation = 4).
	if errors.Is(err, tool.ErrUnknown) || errors.Is(err, tool.ErrMissingInput) ||
		errors.Is(err, tool.ErrInvalidParam) || errors.Is(err, media.ErrUnsupportedImage) ||
		errors.Is(err, media.ErrInvalidDataURI) || errors.Is(err, apierr.ErrUnsupported) ||
		errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrOutputExists) ||
		errors.Is(err, cli.ErrNoShots) {
		return ExitValidation
	}

	// Generation errors (ExitGeneration = 5).
	var (
		given  *apierr.GivenUpError
		status *apierr.StatusError
	)
	if errors.As(err, &given) || errors.As(err, &status) || errors.Is(err, apierr.ErrRateLimit) ||
		errors.Is(err, apierr.ErrOverloaded) || errors.Is(err, apierr.ErrTimeout) ||
		errors.Is(err, apierr.ErrBadRequest) || errors.Is(err, apierr.ErrNoCandidates) ||
		errors.Is(err, apierr.ErrNoImageData) || errors.Is(err, apierr.ErrNoTextData) {
		return ExitGeneration
	}

	// Cobra flag/arg parsing errors. Cobra doesn't expose typed errors, so we
	// check for known message patterns, after the sentinels because provider
	// messages can contain the same words.
	if isCobraUsageError(err) {
		return ExitUsage
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// These patterns are stable across Cobra versions (tested with v1.8+).
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
