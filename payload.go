package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"strings"
)

// payloadMode tags the active representation of a request body.
type payloadMode int

const (
	payloadNone payloadMode = iota
	payloadRaw
	payloadForm
	payloadMultipart
	payloadStream
)

// FormField is a single key-value pair of an application/x-www-form-urlencoded
// body. Fields keep their insertion order; encoding the same fields in the
// same order always produces the same wire bytes.
type FormField struct {
	Key   string
	Value string
}

// Payload describes a request body for hashing. Exactly one representation
// is active; use one of the constructors. A nil *Payload hashes to absent.
type Payload struct {
	mode payloadMode
	raw  string
	form []FormField
	open func() (io.ReadCloser, error)
}

// RawPayload describes an in-memory body with exact wire content s.
func RawPayload(s string) *Payload {
	return &Payload{mode: payloadRaw, raw: s}
}

// FormPayload describes an application/x-www-form-urlencoded body. The
// fields are percent-encoded per RFC 3986 and joined as key=value&key=value
// before hashing, matching the bytes a strict form encoder puts on the wire.
func FormPayload(fields []FormField) *Payload {
	return &Payload{mode: payloadForm, form: fields}
}

// MultipartPayload describes a multipart/form-data body. Multipart bodies
// cannot be hashed without rewriting the body itself, so Hash always reports
// absent and signing proceeds with the empty-body digest placeholder.
func MultipartPayload() *Payload {
	return &Payload{mode: payloadMultipart}
}

// StreamPayload describes a file-backed body. The open function must return
// an independent reader over the same bytes each time it is called, so that
// hashing never consumes the reader the transport will send. It has the same
// contract as http.Request.GetBody.
func StreamPayload(open func() (io.ReadCloser, error)) *Payload {
	return &Payload{mode: payloadStream, open: open}
}

// Hash returns the lowercase hex SHA-256 digest of the payload and true, or
// ("", false) when no digest can be computed. Unsupported modes, a missing
// or failing open function, and stream read errors all degrade to absent
// rather than failing: a request with an absent digest still gets signed,
// and the server rejects it where a local error would have aborted the
// whole request pipeline.
func (p *Payload) Hash() (string, bool) {
	if p == nil {
		return "", false
	}

	switch p.mode {
	case payloadRaw:
		sum := sha256.Sum256([]byte(p.raw))
		return hex.EncodeToString(sum[:]), true

	case payloadForm:
		sum := sha256.Sum256([]byte(encodeForm(p.form)))
		return hex.EncodeToString(sum[:]), true

	case payloadStream:
		return p.hashStream()

	default:
		// payloadNone, payloadMultipart
		return "", false
	}
}

// hashStream opens an independent reader over the body and feeds it through
// the hash in chunks. Any failure resolves to absent.
func (p *Payload) hashStream() (string, bool) {
	if p.open == nil {
		return "", false
	}

	rc, err := p.open()
	if err != nil || rc == nil {
		return "", false
	}
	defer rc.Close()

	h := sha256.New()
	if _, err := io.Copy(h, rc); err != nil {
		return "", false
	}

	return hex.EncodeToString(h.Sum(nil)), true
}

// encodeForm serializes form fields as key=value&key=value with strict
// RFC 3986 percent-encoding on both sides.
func encodeForm(fields []FormField) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(escape(f.Key))
		b.WriteByte('=')
		b.WriteString(escape(f.Value))
	}

	return b.String()
}

// escape percent-encodes s per RFC 3986: only unreserved characters
// (ALPHA / DIGIT / "-" / "." / "_" / "~") pass through. url.QueryEscape
// already escapes the sub-delims; only its "+" for space needs fixing up.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
