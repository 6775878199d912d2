// Package credential resolves the API key used for each outbound request.
//
// A user-supplied key, persisted in a key=value store, takes precedence over
// the default injected through the environment or at build time. Every key is
// sanitized before use: pasted keys frequently carry invisible characters
// that the provider would reject as an invalid header value.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tuaneric255-blip/Imaxai/internal/apierr"
)

// MinKeyLength is the exclusive lower bound for a user-entered key.
const MinKeyLength = 10

// ErrKeyTooShort indicates a user-entered key that cannot be a real API key.
var ErrKeyTooShort = errors.New("API key is too short")

// Store reads persisted values by key. A missing key is reported as "".
type Store interface {
	Get(key string) (string, error)
}

// Provider yields the credential for the next request.
// It is consulted on every attempt, so a key changed between retries takes
// effect immediately.
type Provider interface {
	Resolve() (string, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() (string, error)

// Resolve calls f.
func (f ProviderFunc) Resolve() (string, error) { return f() }

// Static returns a Provider that always yields key, sanitized.
func Static(key string) Provider {
	return Resolver{Default: key}
}

// Resolver implements Provider over a Store and a fallback default.
type Resolver struct {
	// Store holds the user-supplied key. May be nil.
	Store Store
	// StoreKey is the key under which the user value is stored.
	StoreKey string
	// Default is the environment or build-injected key.
	Default string
}

// Compile-time interface compliance check.
var _ Provider = Resolver{}

// Resolve returns the first non-empty sanitized value among the stored user
// key and Default. It fails with apierr.ErrMissingCredential when both are empty.
func (r Resolver) Resolve() (string, error) {
	if r.Store != nil && r.StoreKey != "" {
		stored, err := r.Store.Get(r.StoreKey)
		if err != nil {
			return "", fmt.Errorf("read stored API key: %w", err)
		}
		if key := Sanitize(stored); key != "" {
			return key, nil
		}
	}
	if key := Sanitize(r.Default); key != "" {
		return key, nil
	}
	return "", apierr.ErrMissingCredential
}

// Sanitize removes every character outside printable ASCII (0x20-0x7E) and
// trims surrounding whitespace. Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(s string) string {
	clean := strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7E {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(clean)
}

// ValidateUserKey sanitizes raw and checks it is long enough to store.
func ValidateUserKey(raw string) (string, error) {
	key := Sanitize(raw)
	if len(key) <= MinKeyLength {
		return "", fmt.Errorf("%w: need more than %d characters, got %d", ErrKeyTooShort, MinKeyLength, len(key))
	}
	return key, nil
}

// Mask renders key for display, keeping only its first four and last four
// characters. Short keys are fully masked.
func Mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "…" + key[len(key)-4:]
}
