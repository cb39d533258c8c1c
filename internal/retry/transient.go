package retry

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// IsTransient reports whether an error looks safe to retry: network-level
// failures, or the rate-limit and overload responses the conversational
// backends return under load.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// Wrapped HTTP client errors only surface as text.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection reset by peer",
		"broken pipe",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"rate limit",
		"resource_exhausted",
		"resource has been exhausted",
		"overloaded",
		"429",
		"500",
		"502",
		"503",
		"504",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
