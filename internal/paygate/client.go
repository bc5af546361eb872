// Package paygate talks to an acquiring provider using the Tinkoff-style v2
// protocol: JSON POSTs signed with a SHA-256 Token.
package paygate

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL     string
	terminalKey string
	password    string
	httpClient  *http.Client
}

type Options struct {
	BaseURL     string
	TerminalKey string
	Password    string
	Timeout     time.Duration
}

func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:     baseURL,
		terminalKey: opts.TerminalKey,
		password:    opts.Password,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

func (c *Client) TerminalKey() string { return c.terminalKey }

type InitRequest struct {
	Amount          int64
	OrderID         string
	Description     string
	CustomerKey     string
	NotificationURL string
	SuccessURL      string
	FailURL         string
	Data            map[string]string
}

type baseResponse struct {
	Success   bool   `json:"Success"`
	ErrorCode string `json:"ErrorCode"`
	Message   string `json:"Message"`
	Details   string `json:"Details"`
}

type PaymentResponse struct {
	TerminalKey string      `json:"TerminalKey"`
	Status      string      `json:"Status"`
	PaymentID   json.Number `json:"PaymentId"`
	OrderID     string      `json:"OrderId"`
	Amount      int64       `json:"Amount"`
	PaymentURL  string      `json:"PaymentURL,omitempty"`
}

// Init registers a payment and returns the provider's payment id and the URL
// to send the buyer to.
func (c *Client) Init(ctx context.Context, in InitRequest) (*PaymentResponse, error) {
	params := map[string]any{
		"TerminalKey": c.terminalKey,
		"Amount":      in.Amount,
		"OrderId":     in.OrderID,
	}
	if in.Description != "" {
		params["Description"] = in.Description
	}
	if in.CustomerKey != "" {
		params["CustomerKey"] = in.CustomerKey
	}
	if in.NotificationURL != "" {
		params["NotificationURL"] = in.NotificationURL
	}
	if in.SuccessURL != "" {
		params["SuccessURL"] = in.SuccessURL
	}
	if in.FailURL != "" {
		params["FailURL"] = in.FailURL
	}
	if len(in.Data) > 0 {
		params["DATA"] = in.Data
	}
	return c.call(ctx, "Init", params)
}

func (c *Client) GetState(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return c.call(ctx, "GetState", map[string]any{
		"TerminalKey": c.terminalKey,
		"PaymentId":   paymentID,
	})
}

func (c *Client) Cancel(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	return c.call(ctx, "Cancel", map[string]any{
		"TerminalKey": c.terminalKey,
		"PaymentId":   paymentID,
	})
}

func (c *Client) call(ctx context.Context, method string, params map[string]any) (*PaymentResponse, error) {
	params["Token"] = Token(params, c.password)

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Method: method, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &GatewayError{Method: method, Err: fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	var result struct {
		baseResponse
		PaymentResponse
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &GatewayError{Method: method, Err: fmt.Errorf("decode response: %w", err)}
	}

	if !result.Success {
		return nil, &GatewayError{
			Method:  method,
			Code:    result.ErrorCode,
			Message: result.Message,
			Details: result.Details,
		}
	}
	return &result.PaymentResponse, nil
}

// VerifyNotification reports whether n was signed with this terminal's
// password. Any mismatch, missing token or foreign terminal is false.
func (c *Client) VerifyNotification(n Notification) bool {
	got := n.String("Token")
	if got == "" {
		return false
	}
	if n.String("TerminalKey") != c.terminalKey {
		return false
	}
	want := Token(n, c.password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
