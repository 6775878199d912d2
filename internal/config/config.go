package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/credential"
)

// Config keys.
const (
	KeyAPIKey       = "api-key"
	KeyOpenAIAPIKey = "openai-api-key"
	KeyOutputDir    = "output-dir"
	KeyProvider     = "provider"
)

// Keys lists every key accepted by `imaxai config set`.
var Keys = []string{KeyAPIKey, KeyOpenAIAPIKey, KeyOutputDir, KeyProvider}

// SecretKeys are masked whenever values are displayed.
var SecretKeys = map[string]bool{KeyAPIKey: true, KeyOpenAIAPIKey: true}

// Environment variable fallbacks.
const (
	EnvOutputDir = "IMAXAI_OUTPUT_DIR"
	EnvProvider  = "IMAXAI_PROVIDER"
)

// appName names the directory under the user config dir.
const appName = "imaxai"

// Config holds user configuration loaded from ~/.config/imaxai/config.
// API keys are not loaded here: they are read through FileStore at request time.
type Config struct {
	OutputDir string
	Provider  string
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/imaxai.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Config file values win; environment variables fill the gaps.
// A missing file yields an empty Config, not an error.
func Load() (Config, error) {
	var cfg Config

	data, err := List()
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	cfg.OutputDir = data[KeyOutputDir]
	cfg.Provider = data[KeyProvider]

	if cfg.OutputDir == "" {
		cfg.OutputDir = os.Getenv(EnvOutputDir)
	}
	if cfg.Provider == "" {
		cfg.Provider = os.Getenv(EnvProvider)
	}

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	return update(func(data map[string]string) {
		data[key] = value
	})
}

// Unset removes key from the config file. Removing an absent key is a no-op.
func Unset(key string) error {
	return update(func(data map[string]string) {
		delete(data, key)
	})
}

// update applies fn to the stored pairs and writes them back.
func update(fn func(map[string]string)) error {
	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if existing == nil {
		existing = make(map[string]string)
	}

	fn(existing)
	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
// The file holds API keys, so it is readable by the owner only.
func writeFile(p string, data map[string]string) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, data[k])
	}

	if err := os.WriteFile(p, []byte(b.String()), 0600); err != nil { // #nosec G306 -- user config file
		return fmt.Errorf("cannot write config file: %w", err)
	}
	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	data, err := List()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// IsKnownKey reports whether key is one of Keys.
func IsKnownKey(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// DisplayValue returns value as it should be shown to the user.
func DisplayValue(key, value string) string {
	if SecretKeys[key] {
		return credential.Mask(value)
	}
	return value
}

// FileStore exposes the config file as a credential store.
// Each call re-reads the file so a key saved elsewhere takes effect on the
// next request.
type FileStore struct{}

// Compile-time interface compliance check.
var _ credential.Store = FileStore{}

// Get reads key from the config file.
func (FileStore) Get(key string) (string, error) { return Get(key) }

// Set persists value under key.
func (FileStore) Set(key, value string) error { return Save(key, value) }

// Unset removes key.
func (FileStore) Unset(key string) error { return Unset(key) }

// List returns every stored value.
func (FileStore) List() (map[string]string, error) { return List() }

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir expands d, creates it if needed and checks it is a directory.
func EnsureOutputDir(d string) (string, error) {
	if d == "" {
		return "", fmt.Errorf("output-dir cannot be empty")
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
			return "", fmt.Errorf("cannot create directory: %w", err)
		}
		return d, nil
	}
	if err != nil {
		return "", fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", d)
	}
	return d, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[2:])
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
