package providers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound provider call. Providers are
// external and can hang; a timed-out initiation leaves the payment pending
// for the poller to resolve.
const DefaultTimeout = 15 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// headerValue does a case-insensitive header lookup on the raw header map.
func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// verifyHMAC checks a hex-encoded HMAC-SHA256 signature over the body.
// Missing or malformed signatures fail closed.
func verifyHMAC(body []byte, signature, secret string) error {
	if signature == "" || secret == "" {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return ErrBadSignature
	}
	return nil
}

// decodeRaw unmarshals a provider response body into a generic map for the
// evidence trail. Decode failures yield an empty map, never an error; the
// raw payload only feeds forensics.
func decodeRaw(body []byte) map[string]interface{} {
	raw := map[string]interface{}{}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &raw)
	}
	return raw
}

// formatMajorUnits renders an amount in minor units as a decimal string,
// which is what the mobile money APIs expect ("10050" -> "100.50").
func formatMajorUnits(minor int64) string {
	return fmt.Sprintf("%d.%02d", minor/100, minor%100)
}
