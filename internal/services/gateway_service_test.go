package services

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/storelink/warehouse-rental-backend/internal/config"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/pkg/signature"
)

func newTestGateway() *GatewayService {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewGatewayService(config.GatewayConfig{
		TmnCode:    "TESTCODE",
		HashSecret: "test-hash-secret",
		PayURL:     "https://sandbox.example.com/pay",
		ReturnURL:  "https://shop.example.com/return",
		Expiry:     15 * time.Minute,
	}, logger)
}

func TestNewTransactionRef(t *testing.T) {
	gw := newTestGateway()

	ref := gw.NewTransactionRef()
	assert.Len(t, ref, 8)
	for _, ch := range ref {
		assert.True(t, ch >= '0' && ch <= '9')
	}
}

func TestBuildRedirect(t *testing.T) {
	gw := newTestGateway()

	t.Run("Builds Signed URL", func(t *testing.T) {
		redirect, err := gw.BuildRedirect(RedirectRequest{
			TxnRef:    "12345678",
			Amount:    500000,
			OrderInfo: "Warehouse rental payment",
			ClientIP:  "203.0.113.10",
		})
		require.NoError(t, err)

		parsed, err := url.Parse(redirect.URL)
		require.NoError(t, err)
		q := parsed.Query()

		assert.Equal(t, "2.1.0", q.Get("vnp_Version"))
		assert.Equal(t, "pay", q.Get("vnp_Command"))
		assert.Equal(t, "TESTCODE", q.Get("vnp_TmnCode"))
		assert.Equal(t, "VND", q.Get("vnp_CurrCode"))
		assert.Equal(t, "12345678", q.Get("vnp_TxnRef"))
		assert.Equal(t, "vn", q.Get("vnp_Locale"))
		assert.Equal(t, "203.0.113.10", q.Get("vnp_IpAddr"))

		// Gateway amounts are minor units.
		assert.Equal(t, "50000000", q.Get("vnp_Amount"))

		// The URL carries its own valid signature.
		params := make(map[string]string)
		for k := range q {
			params[k] = q.Get(k)
		}
		assert.True(t, signature.Verify("test-hash-secret", params, q.Get(signature.SignatureField)))
	})

	t.Run("Expiry Window", func(t *testing.T) {
		before := time.Now()
		redirect, err := gw.BuildRedirect(RedirectRequest{TxnRef: "12345678", Amount: 100})
		require.NoError(t, err)

		assert.WithinDuration(t, before.Add(15*time.Minute), redirect.ExpiresAt, 5*time.Second)

		parsed, _ := url.Parse(redirect.URL)
		create := parsed.Query().Get("vnp_CreateDate")
		expire := parsed.Query().Get("vnp_ExpireDate")
		require.Len(t, create, 14)
		require.Len(t, expire, 14)
		assert.True(t, strings.Compare(expire, create) > 0)
	})

	t.Run("Rejects Non Positive Amount", func(t *testing.T) {
		_, err := gw.BuildRedirect(RedirectRequest{TxnRef: "12345678", Amount: 0})
		assert.True(t, models.IsValidation(err))
	})

	t.Run("Rejects Missing Reference", func(t *testing.T) {
		_, err := gw.BuildRedirect(RedirectRequest{Amount: 100})
		assert.True(t, models.IsValidation(err))
	})
}

func signedCallback(t *testing.T, secret string, params map[string]string) map[string]string {
	t.Helper()
	params[signature.SignatureField] = signature.Sign(secret, signature.Canonicalize(params))
	return params
}

func TestParseCallback(t *testing.T) {
	gw := newTestGateway()

	base := func() map[string]string {
		return map[string]string{
			"vnp_TxnRef":        "12345678",
			"vnp_ResponseCode":  "00",
			"vnp_TransactionNo": "9876543",
			"vnp_BankCode":      "NCB",
			"vnp_CardType":      "ATM",
			"vnp_PayDate":       "20260310120000",
			"vnp_Amount":        "50000000",
		}
	}

	t.Run("Verified Success", func(t *testing.T) {
		cb, err := gw.ParseCallback(signedCallback(t, "test-hash-secret", base()))
		require.NoError(t, err)

		assert.True(t, cb.Verified)
		assert.True(t, cb.Success())
		assert.Equal(t, "12345678", cb.TxnRef)
		assert.Equal(t, "9876543", cb.GatewayTxnID)
		assert.Equal(t, "NCB", cb.BankCode)
		require.NotNil(t, cb.PaidAt)
		assert.Equal(t, 2026, cb.PaidAt.Year())
	})

	t.Run("Verified Failure Code", func(t *testing.T) {
		params := base()
		params["vnp_ResponseCode"] = "24" // customer cancelled
		cb, err := gw.ParseCallback(signedCallback(t, "test-hash-secret", params))
		require.NoError(t, err)

		assert.True(t, cb.Verified)
		assert.False(t, cb.Success())
	})

	t.Run("Tampered Amount Rejected", func(t *testing.T) {
		params := signedCallback(t, "test-hash-secret", base())
		params["vnp_Amount"] = "1"

		_, err := gw.ParseCallback(params)
		require.Error(t, err)
		var se *models.SignatureError
		require.ErrorAs(t, err, &se)
		assert.False(t, se.Malformed)
	})

	t.Run("Wrong Secret Rejected", func(t *testing.T) {
		_, err := gw.ParseCallback(signedCallback(t, "other-secret", base()))
		var se *models.SignatureError
		require.ErrorAs(t, err, &se)
		assert.False(t, se.Malformed)
	})

	t.Run("Missing Signature Is Malformed", func(t *testing.T) {
		_, err := gw.ParseCallback(base())
		var se *models.SignatureError
		require.ErrorAs(t, err, &se)
		assert.True(t, se.Malformed)
	})

	t.Run("Missing TxnRef Is Malformed", func(t *testing.T) {
		params := signedCallback(t, "test-hash-secret", base())
		delete(params, "vnp_TxnRef")

		_, err := gw.ParseCallback(params)
		var se *models.SignatureError
		require.ErrorAs(t, err, &se)
		assert.True(t, se.Malformed)
	})
}
