package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks a webhook body against its X-Hub-Signature-256
// header. The header carries "sha256=" followed by a hex HMAC of the raw
// body keyed with the app secret.
func VerifySignature(body []byte, header, secret string) bool {
	if secret == "" {
		// Verification disabled when no secret is configured.
		return true
	}
	expected, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(computed), []byte(expected))
}
