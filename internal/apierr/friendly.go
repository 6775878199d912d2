package apierr

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

// User-facing messages for the common failure modes.
const (
	MsgQuota      = "Free quota exhausted. Retrying did not help; wait a few minutes or set your own API key (imaxai config set api-key ...)."
	MsgOverloaded = "The provider's servers are overloaded. Please try again later."
	MsgMissingKey = "No API key configured. Set one with: imaxai config set api-key <key>"
)

// Friendly converts err into a message suitable for end users.
//
// Provider SDKs often embed the raw JSON error body in the message, e.g.
// {"error":{"code":429,"message":"You exceeded..."}}; the embedded message
// is preferred over the wrapper text when present.
func Friendly(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrMissingCredential) {
		return MsgMissingKey
	}

	var given *GivenUpError
	if errors.As(err, &given) {
		if given.Kind == KindQuota {
			return MsgQuota
		}
		return MsgOverloaded
	}

	switch Classify(err).Kind {
	case KindQuota:
		return MsgQuota
	case KindOverload:
		return MsgOverloaded
	}

	msg := err.Error()
	var status *StatusError
	if errors.As(err, &status) && status.Message != "" {
		msg = status.Message
	}
	if code, inner, ok := embeddedError(msg); ok {
		if code == 429 {
			return MsgQuota
		}
		if inner != "" {
			msg = inner
		}
	}

	switch Classify(errors.New(msg)).Kind {
	case KindQuota:
		return MsgQuota
	case KindOverload:
		return MsgOverloaded
	}

	msg = strings.TrimPrefix(msg, "GoogleGenAIError:")
	return strings.TrimSpace(msg)
}

// embeddedError extracts error.code and error.message from a JSON object
// embedded anywhere in msg.
func embeddedError(msg string) (code int64, inner string, ok bool) {
	if !strings.Contains(msg, "{") || !strings.Contains(msg, "error") {
		return 0, "", false
	}
	first := strings.Index(msg, "{")
	last := strings.LastIndex(msg, "}")
	if first < 0 || last <= first {
		return 0, "", false
	}
	raw := msg[first : last+1]
	if !gjson.Valid(raw) {
		return 0, "", false
	}
	e := gjson.Get(raw, "error")
	if !e.Exists() {
		return 0, "", false
	}
	return e.Get("code").Int(), e.Get("message").String(), true
}
