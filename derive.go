package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
)

// deriveSigningKey runs the SigV4 key-derivation cascade. Each step is keyed
// by the raw binary output of the previous one:
//
//	kDate    = HMAC-SHA256("AWS4" + secret, dateStamp)
//	kRegion  = HMAC-SHA256(kDate, region)
//	kService = HMAC-SHA256(kRegion, service)
//	kSigning = HMAC-SHA256(kService, "aws4_request")
//
// Keys are derived fresh for every signing operation; the signature embeds
// the timestamp, so there is nothing reusable to cache across requests.
func deriveSigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))

	return hmacSHA256(kService, []byte(scopeSuffix))
}

// hmacSHA256 computes HMAC-SHA256 of data under key.
func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)

	return h.Sum(nil)
}
