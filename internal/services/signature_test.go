package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignPayload(t *testing.T) {
	payload := []byte(`{"event":"payment.succeeded","data":{"payment_id":1}}`)
	secret := "whsec_test"

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, SignPayload(secret, payload))
}

func TestVerifyPayloadSignature(t *testing.T) {
	payload := []byte(`{"event":"course.created"}`)
	secret := "whsec_test"
	sig := SignPayload(secret, payload)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		want      bool
	}{
		{"valid", payload, sig, true},
		{"wrong secret", payload, SignPayload("other", payload), false},
		{"tampered payload", []byte(`{"event":"course.deleted"}`), sig, false},
		{"missing prefix", payload, sig[len("sha256="):], false},
		{"empty signature", payload, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifyPayloadSignature(secret, tt.payload, tt.signature))
		})
	}
}
