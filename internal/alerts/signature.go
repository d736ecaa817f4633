package alerts

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignHMAC produces the lowercase hex HMAC-SHA256 digest carried in the
// X-Signature header of authority alert deliveries.
func SignHMAC(secret string, body []byte) string {
	return hex.EncodeToString(digest(secret, body))
}

// VerifyHMAC checks a received X-Signature value against the shared secret.
func VerifyHMAC(secret string, body []byte, provided string) bool {
	got, err := hex.DecodeString(provided)
	if err != nil {
		return false
	}
	return hmac.Equal(digest(secret, body), got)
}

func digest(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}
