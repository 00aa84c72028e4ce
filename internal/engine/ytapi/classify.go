package ytapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/anatolykoptev/go_ytharvest/internal/engine"
	"github.com/anatolykoptev/go_ytharvest/internal/engine/quota"
	"google.golang.org/api/googleapi"
)

// Kind classifies a failed API call.
type Kind int

const (
	// KindTerminal errors are reported immediately: no retry, no rotation.
	KindTerminal Kind = iota
	// KindQuota errors are tied to the credential and resolved by rotating keys.
	KindQuota
	// KindTransient errors are retried on the same key a bounded number of times.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindQuota:
		return "quota"
	case KindTransient:
		return "transient"
	default:
		return "terminal"
	}
}

// quotaReasons mark errors that a different API key can fix.
var quotaReasons = map[string]bool{
	"quotaExceeded":       true,
	"dailyLimitExceeded":  true,
	"keyInvalid":          true,
	"keyExpired":          true,
	"accessNotConfigured": true,
}

// transientReasons mark per-second throttling and backend hiccups.
var transientReasons = map[string]bool{
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"backendError":          true,
	"internalError":         true,
}

// Classify maps err onto the error taxonomy: quota/auth, transient or terminal.
func Classify(err error) Kind {
	if err == nil {
		return KindTerminal
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Kind
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		for _, item := range gerr.Errors {
			if quotaReasons[item.Reason] {
				return KindQuota
			}
			if transientReasons[item.Reason] {
				return KindTransient
			}
		}
		switch {
		case gerr.Code == http.StatusTooManyRequests, gerr.Code >= 500:
			return KindTransient
		case gerr.Code == http.StatusForbidden && len(gerr.Errors) == 0:
			// Bare 403 without a reason is how exhausted daily quota surfaces on some proxies.
			return KindQuota
		}
		return KindTerminal
	}

	if engine.IsTransientNetError(err) {
		return KindTransient
	}
	return KindTerminal
}

// IsTransient is the retry predicate handed to engine.Retry.
func IsTransient(err error) bool {
	return Classify(err) == KindTransient
}

// CallError is returned by Call when an endpoint invocation fails for good.
type CallError struct {
	Kind     Kind
	Endpoint quota.Endpoint
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("youtube %s: %s error: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
