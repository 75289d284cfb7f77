package sigv4

// Credentials holds an AWS credential tuple. The zero value signs requests
// with empty key material, which produces a syntactically valid but
// unverifiable signature; validating completeness is the caller's concern.
type Credentials struct {
	// AccessKeyID identifies the key pair in the Credential element of the
	// Authorization header.
	AccessKeyID string

	// SecretAccessKey seeds the signing key derivation. It never appears in
	// the signed request.
	SecretAccessKey string

	// SessionToken, when set, is emitted as X-Amz-Security-Token and becomes
	// part of the signed header set.
	SessionToken string
}
