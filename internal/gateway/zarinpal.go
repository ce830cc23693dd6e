package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error is a rejection from the payment gateway, carrying the raw status
// code and its mapped human-readable reason.
type Error struct {
	Code   int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment gateway rejected request: %s (code %d)", e.Reason, e.Code)
}

// Known ZarinPal status codes. Anything not listed maps to a generic reason.
var zarinpalErrors = map[int]string{
	-1:  "incomplete information submitted",
	-2:  "invalid merchant id or ip address",
	-3:  "amount cannot be processed due to payment network limits",
	-4:  "merchant verification level is too low",
	-11: "payment request not found",
	-12: "payment request can no longer be edited",
	-21: "no financial operation found for this transaction",
	-22: "transaction was unsuccessful",
	-33: "transaction amount does not match the paid amount",
	-34: "transaction split limit exceeded",
	-40: "access to the requested method is denied",
	-41: "submitted additional data is invalid",
	-42: "payment id lifetime must be between 30 minutes and 45 days",
	-54: "payment request has been archived",
	101: "payment already verified",
}

const unknownGatewayError = "unknown payment gateway error"

// ReasonForCode maps a gateway status code onto a human-readable reason.
func ReasonForCode(code int) string {
	if reason, ok := zarinpalErrors[code]; ok {
		return reason
	}
	return unknownGatewayError
}

// PaymentRequest carries the fields ZarinPal needs to open a payment
type PaymentRequest struct {
	Amount      int64
	Description string
	Email       string
	Mobile      string
}

// VerifyResult is the gateway's answer to a verification call
type VerifyResult struct {
	RefID           string
	AlreadyVerified bool
}

// ZarinpalClient speaks ZarinPal's REST WebGate endpoints
type ZarinpalClient struct {
	merchantID  string
	requestURL  string
	verifyURL   string
	startPayURL string
	callbackURL string
	httpClient  *http.Client
}

// NewZarinpalClient creates a gateway client with a fixed request timeout
func NewZarinpalClient(merchantID, requestURL, verifyURL, startPayURL, callbackURL string) *ZarinpalClient {
	return &ZarinpalClient{
		merchantID:  merchantID,
		requestURL:  requestURL,
		verifyURL:   verifyURL,
		startPayURL: startPayURL,
		callbackURL: callbackURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type requestPayload struct {
	MerchantID  string `json:"MerchantID"`
	Amount      int64  `json:"Amount"`
	Description string `json:"Description"`
	Email       string `json:"Email"`
	Mobile      string `json:"Mobile"`
	CallbackURL string `json:"CallbackURL"`
}

type requestResponse struct {
	Status    int    `json:"Status"`
	Authority string `json:"Authority"`
}

// RequestPayment opens a payment with the gateway and returns the authority
// token identifying the attempt. Non-success status codes come back as
// *Error with a mapped reason.
func (z *ZarinpalClient) RequestPayment(ctx context.Context, req PaymentRequest) (string, error) {
	payload := requestPayload{
		MerchantID:  z.merchantID,
		Amount:      req.Amount,
		Description: req.Description,
		Email:       req.Email,
		Mobile:      req.Mobile,
		CallbackURL: z.callbackURL,
	}

	var resp requestResponse
	if err := z.post(ctx, z.requestURL, payload, &resp); err != nil {
		return "", err
	}

	if resp.Status != 100 {
		return "", &Error{Code: resp.Status, Reason: ReasonForCode(resp.Status)}
	}
	return resp.Authority, nil
}

type verifyPayload struct {
	MerchantID string `json:"MerchantID"`
	Authority  string `json:"Authority"`
	Amount     int64  `json:"Amount"`
}

type verifyResponse struct {
	Status int             `json:"Status"`
	RefID  json.RawMessage `json:"RefID"`
}

// VerifyPayment confirms a payment with the gateway. Status 100 is a fresh
// success, 101 means the transaction was verified before.
func (z *ZarinpalClient) VerifyPayment(ctx context.Context, authority string, amount int64) (*VerifyResult, error) {
	payload := verifyPayload{
		MerchantID: z.merchantID,
		Authority:  authority,
		Amount:     amount,
	}

	var resp verifyResponse
	if err := z.post(ctx, z.verifyURL, payload, &resp); err != nil {
		return nil, err
	}

	if resp.Status != 100 && resp.Status != 101 {
		return nil, &Error{Code: resp.Status, Reason: ReasonForCode(resp.Status)}
	}

	// RefID arrives as a bare number or a string depending on the endpoint
	refID := string(bytes.Trim(resp.RefID, `"`))
	return &VerifyResult{RefID: refID, AlreadyVerified: resp.Status == 101}, nil
}

// StartPayURL builds the browser redirect URL for an authority
func (z *ZarinpalClient) StartPayURL(authority string) string {
	return z.startPayURL + authority
}

func (z *ZarinpalClient) post(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gateway payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach payment gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("payment gateway error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parse gateway response: %w", err)
	}
	return nil
}
