// Package signature computes and verifies the gateway's HMAC-SHA256 signatures.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided is the signature of payload. The comparison is
// constant time and tolerates surrounding whitespace and upper-case hex.
func Verify(secret string, payload []byte, provided string) bool {
	provided = strings.ToLower(strings.TrimSpace(provided))
	if secret == "" || provided == "" {
		return false
	}
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(mac.Sum(nil), got)
}

// PaymentPayload builds the client confirmation message "<orderRef>|<paymentRef>".
func PaymentPayload(orderRef, paymentRef string) []byte {
	return []byte(orderRef + "|" + paymentRef)
}

// SignPayment signs a client confirmation pair.
func SignPayment(secret, orderRef, paymentRef string) string {
	return Sign(secret, PaymentPayload(orderRef, paymentRef))
}

// VerifyPayment checks a client confirmation signature.
func VerifyPayment(secret, orderRef, paymentRef, provided string) bool {
	return Verify(secret, PaymentPayload(orderRef, paymentRef), provided)
}
