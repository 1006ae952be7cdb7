package bridge

import (
	"errors"
)

// ---------------------------------------------------------------------------
// Collaborator Errors
// ---------------------------------------------------------------------------

var (
	// Cloud order API errors
	ErrRemoteUnavailable     = errors.New("bridge: cloud api temporarily unavailable")
	ErrRemoteTimeout         = errors.New("bridge: cloud api request timed out")
	ErrRemoteRateLimited     = errors.New("bridge: cloud api rate limited")
	ErrRemoteRequestRejected = errors.New("bridge: cloud api rejected the request")
	ErrRemoteInvalidResponse = errors.New("bridge: invalid cloud api response")
	ErrRemoteAuthFailed      = errors.New("bridge: cloud api authentication failed")

	// ERP gateway errors
	ErrErpUnavailable    = errors.New("bridge: erp backend temporarily unavailable")
	ErrErpTimeout        = errors.New("bridge: erp request timed out")
	ErrErpNotConnected   = errors.New("bridge: erp connection not established")
	ErrErpRejected       = errors.New("bridge: erp rejected the document")
	ErrErpInvalidRequest = errors.New("bridge: malformed erp request")
)

// ---------------------------------------------------------------------------
// Failure Classification
// ---------------------------------------------------------------------------

// fatal failures must not be re-attempted; the order is marked failed
var fatalErrors = []error{
	ErrErpRejected,
	ErrErpInvalidRequest,
	ErrRemoteRequestRejected,
	ErrRemoteAuthFailed,
	ErrOrderMissingID,
	ErrOrderNoLines,
	ErrOrderLineMissingProduct,
	ErrOrderLineInvalidQuantity,
	ErrOrderLineInvalidPrice,
}

// IsFatalError returns true if the failure is permanent: a malformed
// request, a remote 4xx-class rejection, or a business-rule rejection
// reported by the gateway itself.
func IsFatalError(err error) bool {
	for _, fatal := range fatalErrors {
		if errors.Is(err, fatal) {
			return true
		}
	}
	return false
}

// IsRetryableError returns true if the failure is likely transient:
// network/connection errors, request timeouts, and 5xx-class remote
// failures. Unclassified errors are treated as retryable; misclassifying
// a transient failure as fatal would drop an order, while an extra
// attempt is harmless under the at-least-once model.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return !IsFatalError(err)
}
