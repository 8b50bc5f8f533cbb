package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"entry":[]}`)
	secret := "app-secret"

	if !VerifySignature(body, sign(body, secret), secret) {
		t.Error("a valid signature should verify")
	}
	if VerifySignature(body, sign(body, "wrong-secret"), secret) {
		t.Error("a signature from the wrong secret should fail")
	}
	if VerifySignature([]byte("tampered"), sign(body, secret), secret) {
		t.Error("a tampered body should fail")
	}
	if VerifySignature(body, "no-prefix", secret) {
		t.Error("a header without the sha256= prefix should fail")
	}
	if VerifySignature(body, "", secret) {
		t.Error("an empty header should fail")
	}
}

func TestVerifySignatureDisabledWithoutSecret(t *testing.T) {
	if !VerifySignature([]byte("anything"), "whatever", "") {
		t.Error("verification is a no-op when no secret is configured")
	}
}
