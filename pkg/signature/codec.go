package signature

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// SignatureField is the reserved parameter name carrying the HMAC on the
// wire. It is never part of the signed data.
const SignatureField = "vnp_SecureHash"

// legacy gateways also send a hash-type discriminator; it is excluded from
// signing the same way the hash itself is.
const hashTypeField = "vnp_SecureHashType"

// Canonicalize builds the deterministic signing string for a parameter map:
// empty values are dropped, keys are sorted by raw byte order, values are
// percent-encoded, and pairs are joined as key=value with '&'.
func Canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Sign computes HMAC-SHA512 over data with the shared secret, returned as
// lowercase hex.
func Sign(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the canonical string from params with any signature
// fields removed, and compares the result against the supplied signature in
// constant time. Hex case differences are tolerated.
func Verify(secret string, params map[string]string, supplied string) bool {
	if supplied == "" {
		return false
	}
	clean := make(map[string]string, len(params))
	for k, v := range params {
		if k == SignatureField || k == hashTypeField {
			continue
		}
		clean[k] = v
	}
	expected := Sign(secret, Canonicalize(clean))
	given := strings.ToLower(supplied)
	if len(expected) != len(given) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
