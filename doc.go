// Package sigv4 implements AWS Signature Version 4 request signing for
// AWS-compatible APIs.
//
// It derives an Authorization header (plus X-Amz-Date, Host, optional
// X-Amz-Security-Token, and the synthetic X-Amz-Content-Sha256 payload
// digest) from the request method, URL, headers, body, and credentials,
// byte-for-byte the way a verifying server recomputes it.
//
// # Signing Requests
//
// Use SignRequest to sign an HTTP request in place:
//
//	err := sigv4.SignRequest(req, sigv4.SignConfig{
//	    Credentials: sigv4.Credentials{
//	        AccessKeyID:     accessKey,
//	        SecretAccessKey: secretKey,
//	    },
//	    Region:  "us-east-1",
//	    Service: "s3",
//	})
//
// SignatureHeaders computes the same header set without touching the
// request, for callers that want to apply the headers themselves. Region
// defaults to us-east-1 and Service to execute-api, so signing against an
// API-Gateway-fronted endpoint needs no explicit configuration.
//
// # Payload Hashing
//
// The payload digest is resolved automatically for bodiless requests and
// for requests with a replayable body (GetBody). Other body shapes are
// described explicitly with a Payload:
//
//	cfg.Payload = sigv4.RawPayload(`{"status":"ok"}`)
//	cfg.Payload = sigv4.FormPayload([]sigv4.FormField{{Key: "q", Value: "term"}})
//	cfg.Payload = sigv4.StreamPayload(openFile)
//
// Hashing never fails a signing operation: an unreadable stream or an
// unsupported body (multipart) degrades to the empty-body digest
// placeholder, producing a well-formed signature the server will reject,
// rather than aborting the request locally.
//
// # Presigned URLs
//
// PresignRequest moves the signature into the query string, producing a URL
// that grants time-limited access without custom headers:
//
//	url, err := sigv4.PresignRequest(req, cfg, 15*time.Minute)
//
// # Client Transport
//
// NewTransport creates an http.RoundTripper that signs every outgoing
// request. Pass an *http.Transport to configure proxy, TLS, and timeout
// settings, or nil for defaults:
//
//	client := &http.Client{
//	    Transport: sigv4.NewTransport(nil, cfg),
//	}
//
// # Server Verification
//
// VerifyRequest checks the signature on an incoming request against
// credentials looked up by access key ID, and Middleware wraps it for any
// net/http handler chain:
//
//	mw, err := sigv4.Middleware(sigv4.MiddlewareConfig{
//	    Verify: sigv4.VerifyConfig{
//	        Resolver: func(r *http.Request, accessKeyID string) (sigv4.Credentials, error) {
//	            return lookupCredentials(accessKeyID)
//	        },
//	        MaxSkew: 5 * time.Minute,
//	    },
//	})
package sigv4
