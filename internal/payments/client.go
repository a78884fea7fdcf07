// Package payments wraps the Toss Payments confirmation API. Settlement
// itself happens on the gateway; this client only confirms a redirect
// outcome server-side before an order is recorded.
package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client calls the gateway's payment confirmation endpoint.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type confirmRequest struct {
	OrderID string `json:"orderId"`
	Amount  int64  `json:"amount"`
}

// Confirmation is the subset of the gateway response the flow uses.
type Confirmation struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	OrderName   string `json:"orderName"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	ApprovedAt  string `json:"approvedAt"`
	Method      string `json:"method"`
}

// GatewayError is a structured failure returned by the gateway.
type GatewayError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// Confirm approves the payment identified by paymentKey, checking that
// the gateway's view of orderId and amount matches ours.
func (c *Client) Confirm(ctx context.Context, paymentKey, orderID string, amount int64) (*Confirmation, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("payment secret key is not configured")
	}

	body, err := json.Marshal(confirmRequest{OrderID: orderID, Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Gateway auth is HTTP Basic with "secretKey:" as the credential.
	auth := base64.StdEncoding.EncodeToString([]byte(c.secretKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		gwErr := &GatewayError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, gwErr); err != nil || gwErr.Message == "" {
			gwErr.Message = string(respBody)
		}
		return nil, gwErr
	}

	var confirmation Confirmation
	if err := json.Unmarshal(respBody, &confirmation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &confirmation, nil
}
