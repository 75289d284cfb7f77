package sigv4

import (
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// signingVectors mirrors testdata/vectors.yaml: the published AWS SigV4
// test vectors for Amazon S3.
type signingVectors struct {
	Credentials struct {
		AccessKeyID     string `yaml:"access_key_id"`
		SecretAccessKey string `yaml:"secret_access_key"`
	} `yaml:"credentials"`
	Region  string `yaml:"region"`
	Service string `yaml:"service"`
	Date    string `yaml:"date"`
	Cases   []struct {
		Name          string            `yaml:"name"`
		Method        string            `yaml:"method"`
		URL           string            `yaml:"url"`
		Headers       map[string]string `yaml:"headers"`
		Body          string            `yaml:"body"`
		SignedHeaders string            `yaml:"signed_headers"`
		Signature     string            `yaml:"signature"`
	} `yaml:"cases"`
}

func loadSigningVectors(t *testing.T) signingVectors {
	t.Helper()

	raw, err := os.ReadFile("testdata/vectors.yaml")
	require.NoError(t, err)

	var vectors signingVectors
	require.NoError(t, yaml.Unmarshal(raw, &vectors))
	require.NotEmpty(t, vectors.Cases)

	return vectors
}

func TestSignatureHeaders_PublishedVectors(t *testing.T) {
	vectors := loadSigningVectors(t)

	signingTime, err := time.Parse(timeFormat, vectors.Date)
	require.NoError(t, err)

	creds := Credentials{
		AccessKeyID:     vectors.Credentials.AccessKeyID,
		SecretAccessKey: vectors.Credentials.SecretAccessKey,
	}

	for _, tc := range vectors.Cases {
		t.Run(tc.Name, func(t *testing.T) {
			req, err := http.NewRequest(tc.Method, tc.URL, nil)
			require.NoError(t, err)

			for name, value := range tc.Headers {
				req.Header.Set(name, value)
			}

			cfg := SignConfig{
				Credentials: creds,
				Region:      vectors.Region,
				Service:     vectors.Service,
				Time:        signingTime,
			}
			if tc.Body != "" {
				cfg.Payload = RawPayload(tc.Body)
			}

			headers, err := SignatureHeaders(req, cfg)
			require.NoError(t, err)

			want := signingAlgorithm +
				" Credential=" + creds.AccessKeyID + "/20130524/" + vectors.Region + "/" + vectors.Service + "/aws4_request" +
				", SignedHeaders=" + tc.SignedHeaders +
				", Signature=" + tc.Signature

			assert.Equal(t, want, headers.Get("Authorization"))
			assert.Equal(t, vectors.Date, headers.Get("X-Amz-Date"))
			assert.Equal(t, "examplebucket.s3.amazonaws.com", headers.Get("Host"))
		})
	}
}

func TestSignatureHeaders(t *testing.T) {
	creds := Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET"}
	fixed := time.Date(2013, 5, 24, 0, 0, 0, 0, time.UTC)

	t.Run("nil request returns error", func(t *testing.T) {
		_, err := SignatureHeaders(nil, SignConfig{Credentials: creds})
		assert.ErrorIs(t, err, ErrNilRequest)
	})

	t.Run("deterministic for fixed time", func(t *testing.T) {
		cfg := SignConfig{Credentials: creds, Region: "us-east-1", Service: "s3", Time: fixed}

		first := newSignedHeaders(t, "GET", "https://example.amazonaws.com/", cfg)
		second := newSignedHeaders(t, "GET", "https://example.amazonaws.com/", cfg)

		assert.Equal(t, first, second)
	})

	t.Run("header order does not matter", func(t *testing.T) {
		cfg := SignConfig{Credentials: creds, Time: fixed}

		one, err := http.NewRequest("GET", "https://example.amazonaws.com/?b=2&a=1", nil)
		require.NoError(t, err)
		one.Header.Set("X-Custom-A", "1")
		one.Header.Set("X-Custom-B", "2")

		two, err := http.NewRequest("GET", "https://example.amazonaws.com/?a=1&b=2", nil)
		require.NoError(t, err)
		two.Header.Set("X-Custom-B", "2")
		two.Header.Set("X-Custom-A", "1")

		hOne, err := SignatureHeaders(one, cfg)
		require.NoError(t, err)
		hTwo, err := SignatureHeaders(two, cfg)
		require.NoError(t, err)

		assert.Equal(t, hOne.Get("Authorization"), hTwo.Get("Authorization"))
	})

	t.Run("sensitive to every input", func(t *testing.T) {
		base := func() (*http.Request, SignConfig) {
			req, err := http.NewRequest("GET", "https://example.amazonaws.com/path", nil)
			require.NoError(t, err)
			req.Header.Set("X-Custom", "value")

			return req, SignConfig{
				Credentials: creds,
				Region:      "us-east-1",
				Service:     "s3",
				Payload:     RawPayload("body"),
				Time:        fixed,
			}
		}

		req, cfg := base()
		reference, err := SignatureHeaders(req, cfg)
		require.NoError(t, err)

		mutations := map[string]func(*http.Request, *SignConfig){
			"method":     func(r *http.Request, _ *SignConfig) { r.Method = "POST" },
			"path":       func(r *http.Request, _ *SignConfig) { r.URL.Path = "/other" },
			"header":     func(r *http.Request, _ *SignConfig) { r.Header.Set("X-Custom", "other") },
			"body":       func(_ *http.Request, c *SignConfig) { c.Payload = RawPayload("bodX") },
			"access key": func(_ *http.Request, c *SignConfig) { c.Credentials.AccessKeyID = "AKID2" },
			"secret key": func(_ *http.Request, c *SignConfig) { c.Credentials.SecretAccessKey = "SECRET2" },
			"region":     func(_ *http.Request, c *SignConfig) { c.Region = "eu-west-1" },
			"service":    func(_ *http.Request, c *SignConfig) { c.Service = "dynamodb" },
			"time":       func(_ *http.Request, c *SignConfig) { c.Time = fixed.Add(time.Second) },
		}

		for name, mutate := range mutations {
			t.Run(name, func(t *testing.T) {
				req, cfg := base()
				mutate(req, &cfg)

				headers, err := SignatureHeaders(req, cfg)
				require.NoError(t, err)

				assert.NotEqual(t, reference.Get("Authorization"), headers.Get("Authorization"))
			})
		}
	})

	t.Run("defaults to execute-api in us-east-1", func(t *testing.T) {
		headers := newSignedHeaders(t, "GET", "https://abc123.execute-api.us-east-1.amazonaws.com/prod/items",
			SignConfig{Credentials: creds, Time: fixed})

		assert.Contains(t, headers.Get("Authorization"), "/20130524/us-east-1/execute-api/aws4_request,")
	})

	t.Run("session token emitted and signed", func(t *testing.T) {
		withToken := creds
		withToken.SessionToken = "SESSION"

		headers := newSignedHeaders(t, "GET", "https://example.amazonaws.com/",
			SignConfig{Credentials: withToken, Time: fixed})

		assert.Equal(t, "SESSION", headers.Get("X-Amz-Security-Token"))
		assert.Contains(t, headers.Get("Authorization"), "x-amz-security-token")
	})

	t.Run("no session token means no token header", func(t *testing.T) {
		headers := newSignedHeaders(t, "GET", "https://example.amazonaws.com/",
			SignConfig{Credentials: creds, Time: fixed})

		assert.Empty(t, headers.Values("X-Amz-Security-Token"))
		assert.NotContains(t, headers.Get("Authorization"), "x-amz-security-token")
	})

	t.Run("empty body hashes to empty-string digest", func(t *testing.T) {
		headers := newSignedHeaders(t, "GET", "https://example.amazonaws.com/",
			SignConfig{Credentials: creds, Time: fixed})

		assert.Equal(t, EmptyStringSHA256, headers.Get("X-Amz-Content-Sha256"))
	})

	t.Run("absent digest keeps signature well-formed", func(t *testing.T) {
		headers := newSignedHeaders(t, "POST", "https://example.amazonaws.com/upload",
			SignConfig{Credentials: creds, Payload: MultipartPayload(), Time: fixed})

		assert.Empty(t, headers.Values("X-Amz-Content-Sha256"))

		auth := headers.Get("Authorization")
		assert.True(t, strings.HasPrefix(auth, signingAlgorithm+" Credential="))
		assert.Contains(t, auth, ", SignedHeaders=host;x-amz-date, Signature=")
	})

	t.Run("absent digest signs empty-string placeholder", func(t *testing.T) {
		degraded := newSignedHeaders(t, "POST", "https://example.amazonaws.com/upload",
			SignConfig{Credentials: creds, Payload: MultipartPayload(), Time: fixed})

		// Both canonical requests hash the empty-string placeholder, but the
		// bodiless request also emits and signs x-amz-content-sha256, so the
		// signed header sets (and signatures) differ.
		req, err := http.NewRequest("POST", "https://example.amazonaws.com/upload", nil)
		require.NoError(t, err)

		explicit, err := SignatureHeaders(req, SignConfig{Credentials: creds, Time: fixed})
		require.NoError(t, err)

		assert.NotEqual(t, explicit.Get("Authorization"), degraded.Get("Authorization"),
			"explicit digest adds x-amz-content-sha256 to the signed set")
		assert.Contains(t, explicit.Get("Authorization"), "x-amz-content-sha256")
	})

	t.Run("content type never injected", func(t *testing.T) {
		headers := newSignedHeaders(t, "POST", "https://example.amazonaws.com/",
			SignConfig{Credentials: creds, Payload: RawPayload("{}"), Time: fixed})

		assert.NotContains(t, headers.Get("Authorization"), "content-type")
	})

	t.Run("content type signed when present", func(t *testing.T) {
		req, err := http.NewRequest("POST", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")

		headers, err := SignatureHeaders(req, SignConfig{Credentials: creds, Time: fixed})
		require.NoError(t, err)

		assert.Contains(t, headers.Get("Authorization"), "content-type;host;")
	})

	t.Run("precomputed payload hash wins", func(t *testing.T) {
		req, err := http.NewRequest("PUT", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)

		digest, ok := RawPayload("abc").Hash()
		require.True(t, ok)

		headers, err := SignatureHeaders(req, SignConfig{
			Credentials: creds,
			PayloadHash: digest,
			Payload:     RawPayload("ignored"),
			Time:        fixed,
		})
		require.NoError(t, err)

		assert.Equal(t, digest, headers.Get("X-Amz-Content-Sha256"))
	})

	t.Run("stale auth headers are not signed", func(t *testing.T) {
		clean := newSignedHeaders(t, "GET", "https://example.amazonaws.com/",
			SignConfig{Credentials: creds, Time: fixed})

		req, err := http.NewRequest("GET", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "AWS4-HMAC-SHA256 stale")
		req.Header.Set("X-Amz-Date", "19700101T000000Z")
		req.Header.Set("x-amz-security-token", "stale-token")

		headers, err := SignatureHeaders(req, SignConfig{Credentials: creds, Time: fixed})
		require.NoError(t, err)

		assert.Equal(t, clean.Get("Authorization"), headers.Get("Authorization"))
	})

	t.Run("invalid header value rejected", func(t *testing.T) {
		req, err := http.NewRequest("GET", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)
		req.Header.Set("X-Custom", "bad\nvalue")

		_, err = SignatureHeaders(req, SignConfig{Credentials: creds, Time: fixed})
		assert.ErrorIs(t, err, ErrInvalidHeader)
	})
}

func TestSignRequest(t *testing.T) {
	creds := Credentials{AccessKeyID: "AKID", SecretAccessKey: "SECRET", SessionToken: "SESSION"}
	fixed := time.Date(2013, 5, 24, 0, 0, 0, 0, time.UTC)

	t.Run("applies header set in place", func(t *testing.T) {
		req, err := http.NewRequest("GET", "https://example.amazonaws.com/items?a=1", nil)
		require.NoError(t, err)

		err = SignRequest(req, SignConfig{Credentials: creds, Time: fixed})
		require.NoError(t, err)

		assert.NotEmpty(t, req.Header.Get("Authorization"))
		assert.Equal(t, "20130524T000000Z", req.Header.Get("X-Amz-Date"))
		assert.Equal(t, "SESSION", req.Header.Get("X-Amz-Security-Token"))
		assert.Equal(t, EmptyStringSHA256, req.Header.Get("X-Amz-Content-Sha256"))
		assert.Equal(t, "example.amazonaws.com", req.Host)
	})

	t.Run("overrides stale caller headers", func(t *testing.T) {
		req, err := http.NewRequest("GET", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "stale stale")
		req.Header.Set("X-Amz-Date", "19700101T000000Z")

		err = SignRequest(req, SignConfig{Credentials: creds, Time: fixed})
		require.NoError(t, err)

		assert.Len(t, req.Header.Values("Authorization"), 1)
		assert.NotEqual(t, "stale stale", req.Header.Get("Authorization"))
		assert.Equal(t, "20130524T000000Z", req.Header.Get("X-Amz-Date"))
	})

	t.Run("signer binds config", func(t *testing.T) {
		signer := NewSigner(SignConfig{Credentials: creds, Time: fixed})

		req, err := http.NewRequest("GET", "https://example.amazonaws.com/", nil)
		require.NoError(t, err)

		headers, err := signer.SignatureHeaders(req)
		require.NoError(t, err)
		assert.NotEmpty(t, headers.Get("Authorization"))

		require.NoError(t, signer.SignRequest(req))
		assert.Equal(t, headers.Get("Authorization"), req.Header.Get("Authorization"))
	})

	t.Run("satisfies RequestSigner", func(t *testing.T) {
		var _ RequestSigner = NewSigner(SignConfig{})
	})
}

// newSignedHeaders builds a bodiless request and signs it, failing the test
// on any error.
func newSignedHeaders(t *testing.T, method, url string, cfg SignConfig) http.Header {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)

	headers, err := SignatureHeaders(req, cfg)
	require.NoError(t, err)

	return headers
}
