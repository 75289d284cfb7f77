package sigv4

import (
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	scopeSuffix      = "aws4_request"

	// timeFormat is the X-Amz-Date form, shortTimeFormat the credential
	// scope date.
	timeFormat      = "20060102T150405Z"
	shortTimeFormat = "20060102"
)

const (
	// EmptyStringSHA256 is the hex SHA-256 of the empty string. It is the
	// payload digest placeholder for bodiless requests and for bodies whose
	// digest could not be computed.
	EmptyStringSHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	// UnsignedPayload is the sentinel digest value declaring that the payload
	// is not covered by the signature. Presigned URLs use it by default.
	UnsignedPayload = "UNSIGNED-PAYLOAD"
)

// Defaults applied when SignConfig leaves Region or Service empty. They make
// the signer usable against API-Gateway-fronted endpoints with zero
// configuration.
const (
	DefaultRegion  = "us-east-1"
	DefaultService = "execute-api"
)

// Header names owned by the signer.
const (
	authorizationHeader    = "Authorization"
	hostHeader             = "Host"
	amzDateHeader          = "X-Amz-Date"
	amzSecurityTokenHeader = "X-Amz-Security-Token"
	amzContentSHA256Header = "X-Amz-Content-Sha256"
)

// SignConfig configures AWS Signature Version 4 signing.
type SignConfig struct {
	// Credentials is the credential tuple used to derive the signing key.
	Credentials Credentials

	// Region is the credential scope region. Defaults to DefaultRegion.
	Region string

	// Service is the credential scope service. Defaults to DefaultService.
	Service string

	// Payload describes the request body for digest computation. When nil,
	// the digest is resolved from the request itself: a bodiless request
	// hashes to EmptyStringSHA256 and a request with GetBody is hashed from
	// a fresh body reader.
	Payload *Payload

	// PayloadHash is a precomputed hex digest (or the UnsignedPayload
	// sentinel). When set it takes precedence over Payload.
	PayloadHash string

	// Time fixes the signing instant. When zero, the clock is read once per
	// signing operation. Two operations with identical inputs and the same
	// Time produce byte-identical signatures.
	Time time.Time
}

// resolve returns the config with defaults applied.
func (cfg SignConfig) resolve() SignConfig {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	if cfg.Service == "" {
		cfg.Service = DefaultService
	}

	return cfg
}

// RequestSigner is the capability of producing signature headers for an
// outgoing request. Implementations return the headers the caller must merge
// into the request with system precedence; they do not mutate the request.
type RequestSigner interface {
	SignatureHeaders(r *http.Request) (http.Header, error)
}

// Signer binds a SignConfig to the RequestSigner capability.
type Signer struct {
	config SignConfig
}

// NewSigner creates a Signer for the given config.
func NewSigner(cfg SignConfig) *Signer {
	return &Signer{config: cfg}
}

// SignatureHeaders implements RequestSigner.
func (s *Signer) SignatureHeaders(r *http.Request) (http.Header, error) {
	return SignatureHeaders(r, s.config)
}

// SignRequest signs the request in place using the bound config.
func (s *Signer) SignRequest(r *http.Request) error {
	return SignRequest(r, s.config)
}

// SignatureHeaders computes the SigV4 header set for a request: always
// Authorization, X-Amz-Date, and Host; X-Amz-Security-Token when the
// credentials carry a session token; X-Amz-Content-Sha256 when a payload
// digest was computed. The request is not modified.
//
// The result is deterministic for a fixed cfg.Time: canonicalization sorts
// headers and query parameters, so input ordering does not matter.
func SignatureHeaders(r *http.Request, cfg SignConfig) (http.Header, error) {
	if r == nil || r.URL == nil {
		return nil, ErrNilRequest
	}

	cfg = cfg.resolve()

	// One clock read for both timestamp forms. Re-reading mid-computation
	// could split the signature across a second boundary.
	now := cfg.Time
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	amzDate := now.Format(timeFormat)
	dateStamp := now.Format(shortTimeFormat)

	digest, hashed := resolvePayloadHash(r, cfg)

	// Work on a copy of the headers: stale signature headers are dropped
	// case-insensitively, then the signer's own headers join the set so
	// they are covered by the canonical request.
	working := r.Header.Clone()
	if working == nil {
		working = make(http.Header)
	}

	working.Del(authorizationHeader)
	working.Del(amzDateHeader)
	working.Del(amzSecurityTokenHeader)

	working.Set(amzDateHeader, amzDate)
	if cfg.Credentials.SessionToken != "" {
		working.Set(amzSecurityTokenHeader, cfg.Credentials.SessionToken)
	}
	if hashed {
		working.Set(amzContentSHA256Header, digest)
	}

	host := requestHost(r)

	if err := validateHeaders(host, working); err != nil {
		return nil, err
	}

	headerBlock, signedList := canonicalHeaders(host, working)

	payloadHash := digest
	if !hashed {
		payloadHash = EmptyStringSHA256
	}

	canonicalRequest := buildCanonicalRequest(
		r.Method,
		canonicalPath(r.URL),
		canonicalQuery(r.URL),
		headerBlock,
		signedList,
		payloadHash,
	)

	scope := credentialScope(dateStamp, cfg.Region, cfg.Service)
	stringToSign := buildStringToSign(amzDate, scope, canonicalRequest)

	key := deriveSigningKey(cfg.Credentials.SecretAccessKey, dateStamp, cfg.Region, cfg.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	out := make(http.Header)
	out.Set(authorizationHeader, signingAlgorithm+
		" Credential="+cfg.Credentials.AccessKeyID+"/"+scope+
		", SignedHeaders="+signedList+
		", Signature="+signature)
	out.Set(amzDateHeader, amzDate)
	out.Set(hostHeader, host)

	if cfg.Credentials.SessionToken != "" {
		out.Set(amzSecurityTokenHeader, cfg.Credentials.SessionToken)
	}
	if hashed {
		out.Set(amzContentSHA256Header, digest)
	}

	return out, nil
}

// SignRequest signs the request in place: stale Authorization, X-Amz-Date,
// and X-Amz-Security-Token headers are removed and the computed header set
// is applied, overriding any identically named caller-set values.
func SignRequest(r *http.Request, cfg SignConfig) error {
	headers, err := SignatureHeaders(r, cfg)
	if err != nil {
		return err
	}

	if r.Header == nil {
		r.Header = make(http.Header)
	}

	r.Header.Del(authorizationHeader)
	r.Header.Del(amzDateHeader)
	r.Header.Del(amzSecurityTokenHeader)

	for name, values := range headers {
		if name == hostHeader {
			// net/http takes the host from the request field, not the
			// header map.
			if r.Host == "" {
				r.Host = values[0]
			}

			continue
		}

		r.Header.Del(name)
		for _, value := range values {
			r.Header.Add(name, value)
		}
	}

	return nil
}

// resolvePayloadHash determines the payload digest for a request. The bool
// reports whether a digest is available; when false the signer falls back to
// the empty-string placeholder and emits no X-Amz-Content-Sha256 header.
func resolvePayloadHash(r *http.Request, cfg SignConfig) (string, bool) {
	if cfg.PayloadHash != "" {
		return cfg.PayloadHash, true
	}

	if cfg.Payload != nil {
		return cfg.Payload.Hash()
	}

	if r.Body == nil || r.Body == http.NoBody {
		return EmptyStringSHA256, true
	}

	if r.GetBody != nil {
		return StreamPayload(r.GetBody).Hash()
	}

	// Body present but not replayable: hashing it here would consume it.
	return "", false
}

// validateHeaders rejects header names or values that are not valid HTTP
// fields. Invalid bytes would produce a canonical request the server can
// never reproduce, failing with no usable diagnostic.
func validateHeaders(host string, header http.Header) error {
	if !httpguts.ValidHeaderFieldValue(host) {
		return ErrInvalidHeader
	}

	for name, values := range header {
		if _, skip := ignoredHeaders[strings.ToLower(name)]; skip {
			continue
		}

		if !httpguts.ValidHeaderFieldName(name) {
			return ErrInvalidHeader
		}

		for _, value := range values {
			if !httpguts.ValidHeaderFieldValue(value) {
				return ErrInvalidHeader
			}
		}
	}

	return nil
}
