package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dhaqane/shop-backend/internal/config"
)

const (
	serviceNamePurchase = "API_PURCHASE"
	methodWallet        = "MWALLET_ACCOUNT"
	codeApproved        = "2001"
)

// WaafiClient charges mobile-money wallets (EVC Plus, Zaad, Sahal) through
// a WaafiPay style purchase endpoint.  Merchant credentials come from
// configuration only.
type WaafiClient struct {
	cfg  config.PaymentConfig
	http *http.Client
	now  func() time.Time
}

// NewWaafiClient builds a client for cfg.  A nil hc selects a client whose
// timeout is cfg.Timeout.
func NewWaafiClient(cfg config.PaymentConfig, hc *http.Client) *WaafiClient {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &WaafiClient{cfg: cfg, http: hc, now: time.Now}
}

type purchaseRequest struct {
	SchemaVersion string         `json:"schemaVersion"`
	RequestID     string         `json:"requestId"`
	Timestamp     string         `json:"timestamp"`
	ChannelName   string         `json:"channelName"`
	ServiceName   string         `json:"serviceName"`
	ServiceParams purchaseParams `json:"serviceParams"`
}

type purchaseParams struct {
	MerchantUID     string          `json:"merchantUid"`
	APIUserID       string          `json:"apiUserId"`
	APIKey          string          `json:"apiKey"`
	PaymentMethod   string          `json:"paymentMethod"`
	PayerInfo       payerInfo       `json:"payerInfo"`
	TransactionInfo transactionInfo `json:"transactionInfo"`
}

type payerInfo struct {
	AccountNo string `json:"accountNo"`
}

type transactionInfo struct {
	ReferenceID string `json:"referenceId"`
	InvoiceID   string `json:"invoiceId"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type purchaseResponse struct {
	ResponseCode string `json:"responseCode"`
	ErrorCode    string `json:"errorCode"`
	ResponseMsg  string `json:"responseMsg"`
	Params       struct {
		State         string `json:"state"`
		TransactionID string `json:"transactionId"`
		ReferenceID   string `json:"referenceId"`
	} `json:"params"`
}

// Charge performs a single purchase call.  Amounts are sent with exactly
// two decimal places.
func (c *WaafiClient) Charge(ctx context.Context, req ChargeRequest) (Result, error) {
	ref := req.Reference
	if ref == "" {
		ref = uuid.NewString()
	}
	body := purchaseRequest{
		SchemaVersion: "1.0",
		RequestID:     uuid.NewString(),
		Timestamp:     c.now().UTC().Format("2006-01-02 15:04:05"),
		ChannelName:   "WEB",
		ServiceName:   serviceNamePurchase,
		ServiceParams: purchaseParams{
			MerchantUID:   c.cfg.MerchantUID,
			APIUserID:     c.cfg.APIUserID,
			APIKey:        c.cfg.APIKey,
			PaymentMethod: methodWallet,
			PayerInfo:     payerInfo{AccountNo: normalizePhone(req.Phone)},
			TransactionInfo: transactionInfo{
				ReferenceID: ref,
				InvoiceID:   ref,
				Amount:      req.Amount.StringFixed(2),
				Currency:    c.cfg.Currency,
				Description: req.Description,
			},
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return Result{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(buf))
	if err != nil {
		return Result{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("payment gateway: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("payment gateway: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{}, fmt.Errorf("payment gateway: status %d", resp.StatusCode)
	}

	var out purchaseResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, fmt.Errorf("payment gateway: decode response: %w", err)
	}

	if out.ResponseCode == codeApproved && (out.Params.State == "" || strings.EqualFold(out.Params.State, "APPROVED")) {
		return Result{Approved: true, Message: out.ResponseMsg, TransactionID: out.Params.TransactionID}, nil
	}
	msg := strings.TrimSpace(out.ResponseMsg)
	if msg == "" {
		msg = fmt.Sprintf("payment declined (code %s)", out.ResponseCode)
	}
	return Result{Approved: false, Message: msg}, nil
}

// normalizePhone strips spaces, dashes and a leading plus sign.
func normalizePhone(p string) string {
	r := strings.NewReplacer(" ", "", "-", "", "+", "")
	return r.Replace(strings.TrimSpace(p))
}
