package engagement

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
)

// SignatureHeader carries `t=<unix-seconds>,v1=<hex-digest>`.
const SignatureHeader = "X-Webhook-Signature"

var (
	// ErrSecretMissing means the receiver has no pre-shared secret and must
	// fail closed.
	ErrSecretMissing = errors.New("webhook secret is not configured")
	// ErrSignature covers a missing, malformed or mismatched signature.
	ErrSignature = errors.New("invalid webhook signature")
)

// Sign returns the hex HMAC-SHA256 of "{timestamp}.{body}".
func Sign(secret, timestamp string, body []byte) string {
	return hex.EncodeToString(digest(secret, timestamp, body))
}

// SignatureHeaderValue renders a complete header for the given inputs.
func SignatureHeaderValue(secret string, timestamp int64, body []byte) string {
	ts := strconv.FormatInt(timestamp, 10)
	return "t=" + ts + ",v1=" + Sign(secret, ts, body)
}

// Verify checks header against body. Every failure, including a missing
// header, returns ErrSignature after the same digest comparison. No
// freshness window is applied to the timestamp.
func Verify(secret, header string, body []byte) error {
	if strings.TrimSpace(secret) == "" {
		return ErrSecretMissing
	}

	timestamp, signatures, wellFormed := parseSignatureHeader(header)
	expected := digest(secret, timestamp, body)

	if len(signatures) == 0 {
		signatures = []string{""}
	}
	matched := 0
	for _, sig := range signatures {
		provided, err := hex.DecodeString(sig)
		if err != nil {
			provided = nil
		}
		if hmac.Equal(expected, provided) {
			matched = 1
		}
	}

	if !wellFormed || matched == 0 {
		return ErrSignature
	}
	return nil
}

func digest(secret, timestamp string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte{'.'})
	_, _ = mac.Write(body)
	return mac.Sum(nil)
}

// parseSignatureHeader splits a `k=v,k=v` list. The header is well formed
// only when every entry is a key=value pair and both t and v1 are present
// with a numeric t.
func parseSignatureHeader(header string) (string, []string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil, false
	}

	wellFormed := true
	var timestamp string
	var v1 []string
	for _, part := range strings.Split(header, ",") {
		p := strings.TrimSpace(part)
		k, v, ok := strings.Cut(p, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			wellFormed = false
			continue
		}
		switch k {
		case "t":
			if timestamp == "" {
				timestamp = v
			}
		case "v1":
			v1 = append(v1, v)
		}
	}

	if timestamp == "" || len(v1) == 0 {
		wellFormed = false
	}
	if _, err := strconv.ParseInt(timestamp, 10, 64); err != nil {
		wellFormed = false
	}
	return timestamp, v1, wellFormed
}
