// pkg/signature/signature.go
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Field names the platform uses for its computed digests.
const (
	ProxyField    = "signature" // storefront app-proxy requests
	CallbackField = "hmac"      // OAuth install callback
)

// Canonical renders the query parameters as the platform signs them: the
// digest field removed, multi-valued keys comma-joined, keys sorted bytewise,
// pairs rendered k=v and joined with &.
func Canonical(params url.Values, exclude string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == exclude {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+strings.Join(params[k], ","))
	}
	return strings.Join(pairs, "&")
}

// Compute returns the lowercase hex HMAC-SHA256 of msg under secret.
func Compute(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyField checks the digest carried in params[field] against the
// canonical message of the remaining parameters. Malformed input — missing
// field, empty set — verifies false; it never errors.
func VerifyField(params url.Values, field, secret string) bool {
	supplied := params.Get(field)
	if supplied == "" {
		return false
	}
	want := Compute(secret, Canonical(params, field))
	// constant-time compare; a short-circuiting string compare would leak
	// how many leading digest bytes matched
	return hmac.Equal([]byte(supplied), []byte(want))
}

// Verify authenticates a storefront proxy request.
func Verify(params url.Values, secret string) bool {
	return VerifyField(params, ProxyField, secret)
}

// VerifyCallback authenticates the platform's OAuth install callback.
func VerifyCallback(params url.Values, secret string) bool {
	return VerifyField(params, CallbackField, secret)
}
