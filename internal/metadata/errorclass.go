package metadata

import "strings"

// ErrorClass buckets fetch error messages for the error counter's
// error_type label.
type ErrorClass string

const (
	ErrorRateLimit ErrorClass = "rate_limit"
	ErrorTimeout   ErrorClass = "timeout"
	ErrorNetwork   ErrorClass = "network"
	ErrorUnknown   ErrorClass = "unknown"
)

// ClassifyError maps an error message onto an ErrorClass by
// case-insensitive substring match. Priority order is fixed: rate limit
// before timeout before network, first match wins. Messages matching
// nothing are unknown.
func ClassifyError(msg string) ErrorClass {
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit"):
		return ErrorRateLimit
	case strings.Contains(lower, "timeout"):
		return ErrorTimeout
	case strings.Contains(lower, "network"):
		return ErrorNetwork
	default:
		return ErrorUnknown
	}
}
