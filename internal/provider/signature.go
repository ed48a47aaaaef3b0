package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// VerifySignature checks a webhook signature: hex-encoded HMAC-SHA256
// over the raw request body. Comparison is constant time so the check
// leaks nothing about the expected value.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	provided := strings.ToLower(strings.TrimPrefix(signature, "sha256="))
	return subtle.ConstantTimeCompare([]byte(expected), []byte(provided)) == 1
}
