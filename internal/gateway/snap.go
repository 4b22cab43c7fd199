package gateway

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/ameliazsabrina/sericlo-app/pkg/errors"
	"github.com/ameliazsabrina/sericlo-app/pkg/httpclient"
)

// SnapClient talks to a Snap-style hosted payment gateway. The server key
// authenticates API calls (HTTP basic auth, key as username) and is also the
// shared secret for webhook signature verification.
type SnapClient struct {
	client    *httpclient.CircuitBreakerClient
	baseURL   string
	serverKey string
}

// NewSnapClient creates a gateway client for the given base URL and server key.
func NewSnapClient(client *httpclient.CircuitBreakerClient, baseURL, serverKey string) *SnapClient {
	return &SnapClient{
		client:    client,
		baseURL:   baseURL,
		serverKey: serverKey,
	}
}

// Name returns the provider name.
func (c *SnapClient) Name() string {
	return "snap"
}

type snapTransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type snapCustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
}

type snapCreateRequest struct {
	TransactionDetails snapTransactionDetails `json:"transaction_details"`
	CustomerDetails    snapCustomerDetails    `json:"customer_details"`
}

type snapCreateResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// CreateSession opens a hosted payment session and returns its token.
func (c *SnapClient) CreateSession(ctx context.Context, input *SessionInput) (*Session, error) {
	payload := snapCreateRequest{
		TransactionDetails: snapTransactionDetails{
			OrderID:     input.OrderID,
			GrossAmount: input.GrossAmount,
		},
		CustomerDetails: snapCustomerDetails{
			FirstName: input.CustomerName,
			Email:     input.CustomerEmail,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal session request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.serverKey))

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, apperrors.Upstream("payment gateway", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.Upstream("payment gateway",
			httpclient.ParseResponseError(resp, "payment gateway"))
	}

	var result snapCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Upstream("payment gateway", fmt.Errorf("decode session response: %w", err))
	}
	if result.Token == "" {
		return nil, apperrors.Upstream("payment gateway", fmt.Errorf("gateway returned empty session token"))
	}

	return &Session{Token: result.Token, RedirectURL: result.RedirectURL}, nil
}

// ValidSignature verifies the webhook signature key:
// hex(sha512(order_id + status_code + gross_amount + server_key)).
func (c *SnapClient) ValidSignature(orderID, statusCode, grossAmount, signature string) bool {
	if signature == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + c.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

func basicAuth(serverKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(serverKey + ":"))
}
