package services

import (
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/storelink/warehouse-rental-backend/internal/config"
	"github.com/storelink/warehouse-rental-backend/internal/models"
	"github.com/storelink/warehouse-rental-backend/pkg/signature"
)

// Gateway protocol constants (VNPay wire format).
const (
	gatewayVersion   = "2.1.0"
	gatewayCommand   = "pay"
	gatewayCurrency  = "VND"
	gatewayOrderType = "other"
	gatewayTimeFmt   = "20060102150405" // yyyyMMddHHmmss

	// ResponseCodeSuccess is the gateway's code for a completed payment.
	ResponseCodeSuccess = "00"
)

// GatewayService builds signed redirect URLs for the hosted payment page and
// verifies the callbacks the gateway sends back.
type GatewayService struct {
	cfg    config.GatewayConfig
	logger *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewGatewayService creates a new GatewayService
func NewGatewayService(cfg config.GatewayConfig, logger *logrus.Logger) *GatewayService {
	return &GatewayService{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewTransactionRef generates an 8-digit decimal transaction reference.
// Uniqueness is enforced by the payments table; callers regenerate on
// collision.
func (s *GatewayService) NewTransactionRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%08d", s.rng.Intn(100000000))
}

// RedirectRequest carries everything the gateway needs to host a payment
// page for one transaction.
type RedirectRequest struct {
	TxnRef    string
	Amount    int64 // major currency units
	OrderInfo string
	ClientIP  string
	Locale    string // "vn" or "en"; defaults to "vn"
}

// Redirect is a signed, time-boxed URL to the gateway's payment page.
type Redirect struct {
	TxnRef    string
	URL       string
	ExpiresAt time.Time
}

// BuildRedirect assembles and signs the payment page URL. The gateway
// expects amounts in minor units and local yyyyMMddHHmmss timestamps.
func (s *GatewayService) BuildRedirect(req RedirectRequest) (*Redirect, error) {
	if req.TxnRef == "" {
		return nil, &models.ValidationError{Field: "txn_ref", Reason: "transaction reference is required"}
	}
	if req.Amount <= 0 {
		return nil, &models.ValidationError{Field: "amount", Reason: "amount must be positive"}
	}

	locale := req.Locale
	if locale == "" {
		locale = "vn"
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.Expiry)

	params := map[string]string{
		"vnp_Version":    gatewayVersion,
		"vnp_Command":    gatewayCommand,
		"vnp_TmnCode":    s.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   gatewayCurrency,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  gatewayOrderType,
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  s.cfg.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(gatewayTimeFmt),
		"vnp_ExpireDate": expiresAt.Format(gatewayTimeFmt),
	}

	canonical := signature.Canonicalize(params)
	sig := signature.Sign(s.cfg.HashSecret, canonical)

	s.logger.WithFields(logrus.Fields{
		"txn_ref": req.TxnRef,
		"amount":  req.Amount,
	}).Info("Built payment redirect URL")

	return &Redirect{
		TxnRef:    req.TxnRef,
		URL:       s.cfg.PayURL + "?" + canonical + "&" + signature.SignatureField + "=" + sig,
		ExpiresAt: expiresAt,
	}, nil
}

// CallbackResult is a verified, decoded gateway callback. Fields other than
// Verified are only trustworthy when Verified is true.
type CallbackResult struct {
	TxnRef       string
	GatewayTxnID string
	BankCode     string
	CardType     string
	PaidAt       *time.Time
	ResponseCode string
	Verified     bool
}

// Success reports whether the gateway settled the payment.
func (c *CallbackResult) Success() bool {
	return c.Verified && c.ResponseCode == ResponseCodeSuccess
}

// ParseCallback verifies the callback signature and decodes the gateway
// fields. A missing reference or signature is a malformed callback; a
// present signature that does not match is an invalid one.
func (s *GatewayService) ParseCallback(params map[string]string) (*CallbackResult, error) {
	txnRef := params["vnp_TxnRef"]
	supplied := params[signature.SignatureField]

	if txnRef == "" || supplied == "" || params["vnp_ResponseCode"] == "" {
		return nil, &models.SignatureError{Malformed: true, Reason: "missing required callback parameters"}
	}

	if !signature.Verify(s.cfg.HashSecret, params, supplied) {
		s.logger.WithField("txn_ref", txnRef).Warn("Gateway callback failed signature verification")
		return nil, &models.SignatureError{Reason: "checksum mismatch"}
	}

	result := &CallbackResult{
		TxnRef:       txnRef,
		GatewayTxnID: params["vnp_TransactionNo"],
		BankCode:     params["vnp_BankCode"],
		CardType:     params["vnp_CardType"],
		ResponseCode: params["vnp_ResponseCode"],
		Verified:     true,
	}

	if raw := params["vnp_PayDate"]; raw != "" {
		if paidAt, err := time.ParseInLocation(gatewayTimeFmt, raw, time.Local); err == nil {
			result.PaidAt = &paidAt
		}
	}

	return result, nil
}
