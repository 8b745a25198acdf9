package signature

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	t.Run("Sorts Keys Lexicographically", func(t *testing.T) {
		params := map[string]string{
			"vnp_TxnRef":  "12345678",
			"vnp_Amount":  "1000000",
			"vnp_Command": "pay",
		}

		got := Canonicalize(params)
		assert.Equal(t, "vnp_Amount=1000000&vnp_Command=pay&vnp_TxnRef=12345678", got)
	})

	t.Run("Drops Empty Values", func(t *testing.T) {
		params := map[string]string{
			"vnp_Amount":   "1000000",
			"vnp_BankCode": "",
			"vnp_TxnRef":   "12345678",
		}

		got := Canonicalize(params)
		assert.NotContains(t, got, "vnp_BankCode")
		assert.Equal(t, "vnp_Amount=1000000&vnp_TxnRef=12345678", got)
	})

	t.Run("Percent Encodes Values", func(t *testing.T) {
		params := map[string]string{
			"vnp_OrderInfo": "Rental payment #42",
			"vnp_ReturnUrl": "https://example.com/return?a=b",
		}

		got := Canonicalize(params)
		assert.Contains(t, got, "vnp_OrderInfo=Rental+payment+%2342")
		assert.Contains(t, got, "vnp_ReturnUrl=https%3A%2F%2Fexample.com%2Freturn%3Fa%3Db")
	})

	t.Run("Empty Map", func(t *testing.T) {
		assert.Equal(t, "", Canonicalize(map[string]string{}))
	})
}

func TestSign(t *testing.T) {
	t.Run("Lowercase Hex Output", func(t *testing.T) {
		sig := Sign("secret", "vnp_Amount=1000000")
		require.Len(t, sig, 128) // SHA-512 hex
		assert.Equal(t, strings.ToLower(sig), sig)
	})

	t.Run("Deterministic", func(t *testing.T) {
		assert.Equal(t, Sign("secret", "data"), Sign("secret", "data"))
	})

	t.Run("Secret Changes Output", func(t *testing.T) {
		assert.NotEqual(t, Sign("secret-a", "data"), Sign("secret-b", "data"))
	})
}

func TestVerify(t *testing.T) {
	secret := "merchant-hash-secret"

	t.Run("Round Trip", func(t *testing.T) {
		params := map[string]string{
			"vnp_Amount":       "1000000",
			"vnp_TxnRef":       "12345678",
			"vnp_ResponseCode": "00",
			"vnp_OrderInfo":    "Lot A-3 monthly rent",
		}
		sig := Sign(secret, Canonicalize(params))

		assert.True(t, Verify(secret, params, sig))
	})

	t.Run("Signature Field Is Excluded From Signing", func(t *testing.T) {
		params := map[string]string{
			"vnp_Amount": "1000000",
			"vnp_TxnRef": "12345678",
		}
		sig := Sign(secret, Canonicalize(params))

		// Inbound parameter maps include the signature itself; Verify must
		// strip it before recomputing.
		params[SignatureField] = sig
		params[hashTypeField] = "HmacSHA512"

		assert.True(t, Verify(secret, params, sig))
	})

	t.Run("Tampered Value Rejected", func(t *testing.T) {
		params := map[string]string{
			"vnp_Amount": "1000000",
			"vnp_TxnRef": "12345678",
		}
		sig := Sign(secret, Canonicalize(params))

		params["vnp_Amount"] = "1"
		assert.False(t, Verify(secret, params, sig))
	})

	t.Run("Uppercase Hex Accepted", func(t *testing.T) {
		params := map[string]string{"vnp_TxnRef": "12345678"}
		sig := Sign(secret, Canonicalize(params))

		assert.True(t, Verify(secret, params, strings.ToUpper(sig)))
	})

	t.Run("Empty Signature Rejected", func(t *testing.T) {
		params := map[string]string{"vnp_TxnRef": "12345678"}
		assert.False(t, Verify(secret, params, ""))
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		params := map[string]string{"vnp_TxnRef": "12345678"}
		sig := Sign("other-secret", Canonicalize(params))

		assert.False(t, Verify(secret, params, sig))
	})
}
