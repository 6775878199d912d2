package apierr

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags a failure as transient (worth retrying) or fatal.
type Kind int

const (
	// KindFatal failures recur identically on retry.
	KindFatal Kind = iota
	// KindQuota failures come from rate limiting or quota exhaustion.
	KindQuota
	// KindOverload failures come from a temporarily overloaded provider.
	KindOverload
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFatal:
		return "Fatal"
	case KindQuota:
		return "Transient-Quota"
	case KindOverload:
		return "Transient-Overload"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Transient reports whether the failure is expected to resolve on retry.
func (k Kind) Transient() bool {
	return k == KindQuota || k == KindOverload
}

func (k Kind) condition() string {
	if k == KindQuota {
		return "rate limiting this key (quota exhausted)"
	}
	return "overloaded"
}

// Classified is the result of classifying a raw failure.
type Classified struct {
	Kind Kind

	// Suggested is the server-suggested wait, valid only when HasSuggestion is true.
	Suggested     time.Duration
	HasSuggestion bool
}

// rule maps statuses or message fragments to a Kind.
// Fragments are matched case-insensitively against the error text.
type rule struct {
	kind      Kind
	statuses  []int
	fragments []string
}

// rules are evaluated in order; the first match wins.
// Provider message changes only require editing this table.
var rules = []rule{
	{
		kind:      KindQuota,
		statuses:  []int{http.StatusTooManyRequests},
		fragments: []string{"429", "quota", "resource_exhausted"},
	},
	{
		kind:      KindOverload,
		statuses:  []int{http.StatusServiceUnavailable},
		fragments: []string{"503", "overloaded"},
	},
}

// alwaysFatal lists errors that are never retried regardless of their text.
var alwaysFatal = []error{
	ErrMissingCredential,
	ErrGivenUp,
	ErrNoCandidates,
	ErrNoImageData,
	ErrNoTextData,
	ErrUnsupported,
	ErrTimeout,
	context.Canceled,
	context.DeadlineExceeded,
}

// retryInPattern matches provider hints such as "Please retry in 16.63030837s".
var retryInPattern = regexp.MustCompile(`(?i)retry in\s*([0-9]+(?:\.[0-9]+)?)\s*s`)

// suggestionBuffer is added to every server-suggested wait.
const suggestionBuffer = time.Second

// Classify tags err and extracts a server-suggested wait if its text carries one.
// The result depends only on the error's status and text.
func Classify(err error) Classified {
	if err == nil {
		return Classified{Kind: KindFatal}
	}

	text := err.Error()
	c := Classified{Kind: KindFatal}
	c.Suggested, c.HasSuggestion = SuggestedDelay(text)

	for _, target := range alwaysFatal {
		if errors.Is(err, target) {
			return c
		}
	}

	status := 0
	var se *StatusError
	if errors.As(err, &se) {
		status = se.Code
	}

	c.Kind = matchRules(status, strings.ToLower(text))
	return c
}

// matchRules returns the Kind of the first rule matching status or lowerText.
func matchRules(status int, lowerText string) Kind {
	for _, r := range rules {
		for _, s := range r.statuses {
			if status == s {
				return r.kind
			}
		}
		for _, f := range r.fragments {
			if strings.Contains(lowerText, f) {
				return r.kind
			}
		}
	}
	return KindFatal
}

// SuggestedDelay extracts a "retry in N s" hint from text.
// The returned wait is ceil(N*1000) ms plus a one second buffer.
func SuggestedDelay(text string) (time.Duration, bool) {
	m := retryInPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	ms := math.Ceil(seconds * 1000)
	return time.Duration(ms)*time.Millisecond + suggestionBuffer, true
}
