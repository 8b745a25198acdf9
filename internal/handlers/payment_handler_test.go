package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/internal/services"
)

// rejectingParser fails every callback with a fixed error, standing in for
// the gateway adapter on the unverifiable paths.
type rejectingParser struct {
	err error
}

func (p *rejectingParser) ParseCallback(params map[string]string) (*services.CallbackResult, error) {
	return nil, p.err
}

func newCallbackRouter(t *testing.T, parser services.CallbackParser) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := NewPaymentHandler(nil, services.NewReconciliationService(parser, nil, nil, logger), logger)

	router := gin.New()
	router.GET("/payments/ipn", handler.IPN)
	router.GET("/payments/gateway-return", handler.GatewayReturn)
	return router
}

func TestGatewayReturnHidesSignatureDetails(t *testing.T) {
	router := newCallbackRouter(t, &rejectingParser{
		err: &models.SignatureError{Reason: "checksum mismatch"},
	})

	req := httptest.NewRequest(http.MethodGet, "/payments/gateway-return?vnp_TxnRef=12345678", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "could not be verified")
	// The audit log gets the reason; the payer's browser never does.
	assert.NotContains(t, rec.Body.String(), "checksum")
	assert.NotContains(t, rec.Body.String(), "signature")
}

func TestIPNAnswersGatewayCodes(t *testing.T) {
	t.Run("Invalid Checksum", func(t *testing.T) {
		router := newCallbackRouter(t, &rejectingParser{
			err: &models.SignatureError{Reason: "checksum mismatch"},
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/ipn?vnp_TxnRef=12345678", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"RspCode":"97"`)
	})

	t.Run("Malformed Callback Also Answers 97", func(t *testing.T) {
		router := newCallbackRouter(t, &rejectingParser{
			err: &models.SignatureError{Malformed: true, Reason: "missing vnp_TxnRef"},
		})

		req := httptest.NewRequest(http.MethodGet, "/payments/ipn", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"RspCode":"97"`)
	})
}
