package sigv4

import "errors"

// Signing errors.
var (
	// ErrNilRequest is returned when the request to sign is nil or has no URL.
	ErrNilRequest = errors.New("sigv4: request must not be nil")

	// ErrInvalidHeader is returned when a header selected for signing has a
	// name or value that is not a valid HTTP field. Such bytes would corrupt
	// the canonical request without any server-side diagnostic.
	ErrInvalidHeader = errors.New("sigv4: invalid header in signed set")
)

// Verification errors.
var (
	// ErrNoResolver is returned when VerifyConfig has no KeyResolver configured.
	ErrNoResolver = errors.New("sigv4: key resolver must not be nil")

	// ErrSignatureNotFound is returned when the request carries no
	// Authorization header.
	ErrSignatureNotFound = errors.New("sigv4: signature not found")

	// ErrSignatureInvalid is returned when the recomputed signature does not
	// match the one presented by the client.
	ErrSignatureInvalid = errors.New("sigv4: signature verification failed")

	// ErrSignatureExpired is returned when the request timestamp falls
	// outside the acceptable clock skew window.
	ErrSignatureExpired = errors.New("sigv4: signature expired")

	// ErrMalformedHeader is returned when the Authorization header or the
	// X-Amz-Date header cannot be parsed.
	ErrMalformedHeader = errors.New("sigv4: malformed authorization header")

	// ErrMissingHeader is returned when a header listed in SignedHeaders is
	// absent from the request.
	ErrMissingHeader = errors.New("sigv4: signed header missing from request")

	// ErrUnsupportedAlgorithm is returned when the Authorization header uses
	// a signing algorithm other than AWS4-HMAC-SHA256.
	ErrUnsupportedAlgorithm = errors.New("sigv4: unsupported signing algorithm")

	// ErrScopeMismatch is returned when the credential scope does not match
	// the region or service the verifier is pinned to.
	ErrScopeMismatch = errors.New("sigv4: credential scope mismatch")
)
