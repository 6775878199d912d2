package cli

import (
	"errors"
	"fmt"

	"github.com/tuaneric255-blip/Imaxai/internal/config"
)

// Provider names.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// API key environment variables, in lookup order.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvAPIKey       = "API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Provider represents a validated generative-image provider.
// Zero value is invalid and must not be used.
// Use ParseProvider to create from user input, or the pre-parsed constants.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// ErrInvalidProvider indicates an invalid provider name was specified.
var ErrInvalidProvider = errors.New("invalid provider")

// Pre-parsed provider constants for use in code.
var (
	GeminiProvider = Provider{name: ProviderGemini}
	OpenAIProvider = Provider{name: ProviderOpenAI}
)

var validProviders = map[string]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
}

// ParseProvider validates and parses a provider name string.
// Returns ErrInvalidProvider if the name is not recognized.
func ParseProvider(s string) (Provider, error) {
	if s == "" {
		return Provider{}, fmt.Errorf("provider cannot be empty: %w", ErrInvalidProvider)
	}
	if !validProviders[s] {
		return Provider{}, fmt.Errorf("unknown provider %q (use 'gemini' or 'openai'): %w", s, ErrInvalidProvider)
	}
	return Provider{name: s}, nil
}

// MustParseProvider parses a provider name, panicking if invalid.
// Use only for compile-time constants and tests.
func MustParseProvider(s string) Provider {
	p, err := ParseProvider(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the provider name string.
// Returns empty string for zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero returns true if this is the zero value (no provider set).
func (p Provider) IsZero() bool {
	return p.name == ""
}

// IsOpenAI returns true if this provider is OpenAI.
func (p Provider) IsOpenAI() bool {
	return p.name == ProviderOpenAI
}

// OrDefault returns the provider, or GeminiProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return GeminiProvider
	}
	return p
}

// StoreKey returns the config key holding the user's key for p.
func (p Provider) StoreKey() string {
	if p.IsOpenAI() {
		return config.KeyOpenAIAPIKey
	}
	return config.KeyAPIKey
}

// EnvKeys returns the environment variables consulted for p's default key.
func (p Provider) EnvKeys() []string {
	if p.IsOpenAI() {
		return []string{EnvOpenAIAPIKey}
	}
	return []string{EnvGeminiAPIKey, EnvAPIKey}
}
