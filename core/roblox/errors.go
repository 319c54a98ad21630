package roblox

import "fmt"

// Reason classifies an expected API failure. The set is closed; callers
// switch on it to decide whether a failure is retryable, reportable, or a
// data-integrity problem.
type Reason string

const (
	// ReasonUnauthenticated means the session cookie is missing or expired.
	ReasonUnauthenticated Reason = "unauthenticated"
	// ReasonPermissionDenied means the authenticated account lacks the
	// group permission for the operation.
	ReasonPermissionDenied Reason = "permission_denied"
	// ReasonNotFound means the target user or group does not exist.
	ReasonNotFound Reason = "not_found"
	// ReasonBadRequest means the API rejected the request payload.
	ReasonBadRequest Reason = "bad_request"
	// ReasonVerificationMismatch means a role write returned success but the
	// follow-up read showed the role did not change.
	ReasonVerificationMismatch Reason = "verification_mismatch"
	// ReasonRateLimited means 429 backoff retries were exhausted.
	ReasonRateLimited Reason = "rate_limited"
	// ReasonTransport means a network-level failure survived all retries.
	ReasonTransport Reason = "transport"
)

// Error is a typed, expected failure from the Roblox API. Expected failure
// modes are returned as values; only programmer errors propagate untyped.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("roblox: %s", e.Reason)
	}
	return fmt.Sprintf("roblox: %s: %s", e.Reason, e.Message)
}

// ReasonOf returns the failure reason of err, or an empty Reason if err is
// not a typed API failure.
func ReasonOf(err error) Reason {
	if apiErr, ok := err.(*Error); ok {
		return apiErr.Reason
	}
	return ""
}
