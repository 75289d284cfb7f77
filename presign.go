package sigv4

import (
	"encoding/hex"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// Query parameter names used by query-string (presigned URL) signing.
const (
	amzAlgorithmKey     = "X-Amz-Algorithm"
	amzCredentialKey    = "X-Amz-Credential"
	amzExpiresKey       = "X-Amz-Expires"
	amzSignedHeadersKey = "X-Amz-SignedHeaders"
	amzSignatureKey     = "X-Amz-Signature"
)

// PresignRequest computes a presigned URL for the request, valid for the
// given duration. The signature parameters are carried in the query string
// instead of headers, so the URL can be handed to a client that sets no
// headers beyond Host.
//
// The request is not modified. Headers present on the request (minus the
// ignored set) are included in the signed header set and must be sent
// verbatim by whoever uses the URL. The payload digest defaults to the
// UnsignedPayload sentinel unless cfg supplies a payload or digest.
func PresignRequest(r *http.Request, cfg SignConfig, expires time.Duration) (string, error) {
	if r == nil || r.URL == nil {
		return "", ErrNilRequest
	}

	cfg = cfg.resolve()

	now := cfg.Time
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	amzDate := now.Format(timeFormat)
	dateStamp := now.Format(shortTimeFormat)

	scope := credentialScope(dateStamp, cfg.Region, cfg.Service)

	// Presigned requests carry no signer-injected headers; everything the
	// signer owns is hoisted into the query before canonicalization.
	working := r.Header.Clone()
	if working == nil {
		working = make(http.Header)
	}

	working.Del(authorizationHeader)
	working.Del(amzDateHeader)
	working.Del(amzSecurityTokenHeader)

	host := requestHost(r)

	if err := validateHeaders(host, working); err != nil {
		return "", err
	}

	headerBlock, signedList := canonicalHeaders(host, working)

	query := parseQuery(r.URL.RawQuery)
	query.Set(amzAlgorithmKey, signingAlgorithm)
	query.Set(amzCredentialKey, cfg.Credentials.AccessKeyID+"/"+scope)
	query.Set(amzDateHeader, amzDate)
	query.Set(amzExpiresKey, strconv.FormatInt(int64(expires/time.Second), 10))
	query.Set(amzSignedHeadersKey, signedList)

	if cfg.Credentials.SessionToken != "" {
		query.Set(amzSecurityTokenHeader, cfg.Credentials.SessionToken)
	}

	for key := range query {
		sort.Strings(query[key])
	}
	canonQuery := encodeQuery(query)

	payloadHash := cfg.PayloadHash
	if payloadHash == "" {
		if digest, ok := cfg.Payload.Hash(); ok {
			payloadHash = digest
		} else {
			payloadHash = UnsignedPayload
		}
	}

	canonicalRequest := buildCanonicalRequest(
		r.Method,
		canonicalPath(r.URL),
		canonQuery,
		headerBlock,
		signedList,
		payloadHash,
	)

	stringToSign := buildStringToSign(amzDate, scope, canonicalRequest)

	key := deriveSigningKey(cfg.Credentials.SecretAccessKey, dateStamp, cfg.Region, cfg.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	signed := *r.URL
	signed.RawQuery = canonQuery + "&" + amzSignatureKey + "=" + signature

	return signed.String(), nil
}
