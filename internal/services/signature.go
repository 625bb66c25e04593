package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the delivery signature when the subscription
// has a secret configured.
const SignatureHeader = "X-Webhook-Signature"

const signaturePrefix = "sha256="

// SignPayload computes the delivery signature over the exact payload
// bytes: "sha256=" followed by the hex HMAC-SHA256 digest.
func SignPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// VerifyPayloadSignature checks a received signature header against the
// payload bytes in constant time.
func VerifyPayloadSignature(secret string, payload []byte, signature string) bool {
	if !strings.HasPrefix(signature, signaturePrefix) {
		return false
	}
	expected := SignPayload(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
