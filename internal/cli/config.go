package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
	"github.com/tuaneric255-blip/Imaxai/internal/credential"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/imaxai/config.
API keys saved here take precedence over GEMINI_API_KEY, API_KEY and
OPENAI_API_KEY. They are always displayed masked.

Supported settings:
  api-key          Gemini API key
  openai-api-key   OpenAI API key
  output-dir       Default directory for generated files (env: IMAXAI_OUTPUT_DIR)
  provider         gemini or openai (env: IMAXAI_PROVIDER)`,
		Example: `  imaxai config set api-key AIza...
  imaxai config set output-dir ~/Pictures/imaxai
  imaxai config get provider
  imaxai config list
  imaxai config unset api-key`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))
	cmd.AddCommand(configUnsetCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

API keys are cleaned of invisible characters and must be longer than 10
characters. The output directory is created if it doesn't exist.`,
		Example: `  imaxai config set api-key AIza...
  imaxai config set provider openai`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set. API keys are masked.`,
		Example: `  imaxai config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  imaxai config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// configUnsetCmd creates the "config unset" subcommand.
func configUnsetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "unset <key>",
		Short:   "Remove a configuration value",
		Example: `  imaxai config unset api-key`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigUnset(env, args[0])
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if err := checkConfigKey(key); err != nil {
		return err
	}

	// Key-specific validation.
	switch key {
	case config.KeyAPIKey, config.KeyOpenAIAPIKey:
		clean, err := credential.ValidateUserKey(value)
		if err != nil {
			return err
		}
		value = clean
	case config.KeyOutputDir:
		dir, err := config.EnsureOutputDir(value)
		if err != nil {
			return fmt.Errorf("invalid output-dir: %w", err)
		}
		value = dir
	case config.KeyProvider:
		p, err := ParseProvider(strings.TrimSpace(value))
		if err != nil {
			return err
		}
		value = p.String()
	}

	if err := env.Store.Set(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, config.DisplayValue(key, value))
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if err := checkConfigKey(key); err != nil {
		return err
	}

	value, err := env.Store.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		if name := envFallback(key); name != "" {
			value = env.Getenv(name)
		}
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, config.DisplayValue(key, value))
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := env.Store.List()
	if err != nil {
		return err
	}

	shown := make(map[string]string, len(data))
	for key, value := range data {
		shown[key] = config.DisplayValue(key, value)
	}
	// Add environment variable values for completeness.
	for _, key := range config.Keys {
		if _, ok := shown[key]; ok {
			continue
		}
		if name := envFallback(key); name != "" {
			if v := env.Getenv(name); v != "" {
				shown[key] = v + " (from env)"
			}
		}
	}

	if len(shown) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(shown))
	for key := range shown {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, shown[key])
	}
	return nil
}

// runConfigUnset handles the "config unset" command.
func runConfigUnset(env *Env, key string) error {
	if err := checkConfigKey(key); err != nil {
		return err
	}
	if err := env.Store.Unset(key); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Unset %s\n", key)
	return nil
}

// checkConfigKey rejects keys outside config.Keys.
func checkConfigKey(key string) error {
	if !config.IsKnownKey(key) {
		return fmt.Errorf("%w %q (valid keys: %s)", ErrUnknownConfigKey, key, strings.Join(config.Keys, ", "))
	}
	return nil
}

// envFallback returns the environment variable read when key is unset.
// API keys are not echoed from the environment.
func envFallback(key string) string {
	switch key {
	case config.KeyOutputDir:
		return config.EnvOutputDir
	case config.KeyProvider:
		return config.EnvProvider
	default:
		return ""
	}
}
