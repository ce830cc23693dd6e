package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidPhone = errors.New("invalid mobile number")
	ErrEmptyMessage = errors.New("message text cannot be empty")
)

var phonePattern = regexp.MustCompile(`^(09|\+989)\d{9}$`)

// NormalizePhone validates a mobile number and rewrites the +98 prefix to
// the local 0 form the provider expects.
func NormalizePhone(phone string) (string, error) {
	if !phonePattern.MatchString(phone) {
		return "", ErrInvalidPhone
	}
	if strings.HasPrefix(phone, "+98") {
		return "0" + phone[3:], nil
	}
	return phone, nil
}

// SMSClient speaks the SMS.ir v1 REST API
type SMSClient struct {
	apiKey     string
	lineNumber string
	baseURL    string
	httpClient *http.Client
}

// NewSMSClient creates an SMS provider client with a fixed request timeout
func NewSMSClient(apiKey, lineNumber, baseURL string) *SMSClient {
	return &SMSClient{
		apiKey:     apiKey,
		lineNumber: lineNumber,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type smsResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// Send delivers one message to one recipient
func (c *SMSClient) Send(ctx context.Context, mobile, message string) error {
	return c.SendBulk(ctx, []string{mobile}, message)
}

// SendBulk delivers one message to several recipients
func (c *SMSClient) SendBulk(ctx context.Context, mobiles []string, message string) error {
	if strings.TrimSpace(message) == "" {
		return ErrEmptyMessage
	}
	if len(mobiles) == 0 {
		return ErrInvalidPhone
	}

	normalized := make([]string, 0, len(mobiles))
	for _, m := range mobiles {
		n, err := NormalizePhone(m)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidPhone, m)
		}
		normalized = append(normalized, n)
	}

	payload := map[string]interface{}{
		"lineNumber":  c.lineNumber,
		"messageText": message,
		"mobiles":     normalized,
	}
	return c.post(ctx, "/send/bulk", payload)
}

// SendVerifyCode delivers a verification code through the provider's
// template endpoint
func (c *SMSClient) SendVerifyCode(ctx context.Context, mobile string, templateID int, code string) error {
	normalized, err := NormalizePhone(mobile)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"mobile":     normalized,
		"templateId": templateID,
		"parameters": []map[string]string{
			{"name": "code", "value": code},
		},
	}
	return c.post(ctx, "/send/verify", payload)
}

type creditResponse struct {
	Status int     `json:"status"`
	Data   float64 `json:"data"`
}

// Credit returns the remaining SMS credit balance
func (c *SMSClient) Credit(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/credit", nil)
	if err != nil {
		return 0, fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach sms provider: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sms provider error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed creditResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parse sms response: %w", err)
	}
	return parsed.Data, nil
}

func (c *SMSClient) post(ctx context.Context, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sms payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach sms provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sms response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms provider error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed smsResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("parse sms response: %w", err)
	}
	if parsed.Status != 1 {
		return fmt.Errorf("sms provider rejected message: %s", parsed.Message)
	}
	return nil
}
