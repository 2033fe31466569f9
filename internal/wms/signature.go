package wms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignBody computes the base64 HMAC-SHA256 signature of a raw webhook body
func SignBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ValidSignature verifies the X-Hmac-Sha256 header value against the raw
// request body using a constant-time comparison.
func ValidSignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := SignBody(body, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
