package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ignoredHeaders are never included in the signed header set. They are
// routinely rewritten by proxies and HTTP client internals, so signing them
// would desynchronize the signature from the bytes on the wire.
var ignoredHeaders = map[string]struct{}{
	"authorization":     {},
	"user-agent":        {},
	"x-amzn-trace-id":   {},
	"expect":            {},
	"transfer-encoding": {},
}

// canonicalPath returns the escaped URI path, defaulting to "/". The path is
// used as-is (single-escaped), which is what S3-style services expect.
func canonicalPath(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		return "/"
	}

	return path
}

// canonicalQuery re-encodes the query string with parameters sorted by key
// (values sorted within a key) and strict RFC 3986 escaping. An absent query
// canonicalizes to the empty string. The result is order-independent: any
// permutation of the input parameters produces identical output.
func canonicalQuery(u *url.URL) string {
	query := parseQuery(u.RawQuery)
	for key := range query {
		sort.Strings(query[key])
	}

	return encodeQuery(query)
}

// parseQuery splits a raw query on "&" only. url.Values parsing drops any
// pair containing a semicolon, which would desynchronize the canonical query
// from the bytes on the wire; here a semicolon is an ordinary value byte.
// A pair that fails to unescape is kept verbatim rather than dropped.
func parseQuery(raw string) url.Values {
	query := url.Values{}
	for raw != "" {
		var pair string
		pair, raw, _ = strings.Cut(raw, "&")
		if pair == "" {
			continue
		}

		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}

		query.Add(key, value)
	}

	return query
}

// encodeQuery encodes url.Values with %20 for space instead of "+",
// per the SigV4 canonical query rules.
func encodeQuery(query url.Values) string {
	return strings.ReplaceAll(query.Encode(), "+", "%20")
}

// canonicalHeaders builds the canonical header block and the sorted
// semicolon-joined signed-header list from an outgoing header set. The host
// value is supplied separately because net/http carries it on the request,
// not in the header map.
//
// Header names are lowercased, values are trimmed with inner whitespace runs
// collapsed, multiple values for one name are comma-joined, and lines are
// emitted in sorted name order as "name:value\n".
func canonicalHeaders(host string, header http.Header) (canonical, signedList string) {
	const hostName = "host"

	byName := map[string][]string{
		hostName: {host},
	}
	names := []string{hostName}

	// Iterate keys in sorted order so two map keys folding to the same
	// lowercase name merge their values deterministically.
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		lower := strings.ToLower(key)
		if _, skip := ignoredHeaders[lower]; skip {
			continue
		}
		if lower == hostName {
			continue
		}

		if _, seen := byName[lower]; !seen {
			names = append(names, lower)
		}

		byName[lower] = append(byName[lower], header[key]...)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte(':')

		for i, value := range byName[name] {
			if i > 0 {
				b.WriteByte(',')
			}

			b.WriteString(collapseSpaces(value))
		}

		b.WriteByte('\n')
	}

	return b.String(), strings.Join(names, ";")
}

// canonicalHeadersFor rebuilds the canonical header block for verification
// from an explicit signed-header list, reading values off the incoming
// request. The list order is preserved; the signer emitted it sorted.
func canonicalHeadersFor(r *http.Request, names []string) (string, error) {
	var b strings.Builder
	for _, name := range names {
		var values []string
		if name == "host" {
			values = []string{requestHost(r)}
		} else {
			values = r.Header.Values(name)
		}

		if len(values) == 0 {
			return "", fmt.Errorf("%w: %s", ErrMissingHeader, name)
		}

		b.WriteString(name)
		b.WriteByte(':')

		for i, value := range values {
			if i > 0 {
				b.WriteByte(',')
			}

			b.WriteString(collapseSpaces(value))
		}

		b.WriteByte('\n')
	}

	return b.String(), nil
}

// collapseSpaces trims a header value and collapses internal whitespace runs
// to single spaces, as the canonical header rules require.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// requestHost returns the target host of a request, preferring the explicit
// Host field over the URL authority.
func requestHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}

	if r.URL != nil {
		return r.URL.Host
	}

	return ""
}

// credentialScope builds the scope string date/region/service/aws4_request.
func credentialScope(dateStamp, region, service string) string {
	return strings.Join([]string{dateStamp, region, service, scopeSuffix}, "/")
}

// buildCanonicalRequest assembles the canonical request:
// METHOD, path, query, header block, signed-header list, payload digest,
// newline-joined.
func buildCanonicalRequest(method, path, query, headerBlock, signedList, payloadHash string) string {
	return strings.Join([]string{
		method,
		path,
		query,
		headerBlock,
		signedList,
		payloadHash,
	}, "\n")
}

// buildStringToSign assembles the string to sign from the timestamp, the
// credential scope, and the SHA-256 of the canonical request.
func buildStringToSign(amzDate, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))

	return strings.Join([]string{
		signingAlgorithm,
		amzDate,
		scope,
		hex.EncodeToString(sum[:]),
	}, "\n")
}
