package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a Paystack API client.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a Paystack client with the given configuration.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() Config {
	return c.config
}

// Initialize starts a checkout session and returns the hosted payment page
// URL plus the transaction reference.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.config.CallbackURL
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/transaction/initialize", req)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transaction: %w", err)
	}

	var envelope initializeEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initialize response: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrTransactionError, envelope.Message)
	}
	return &envelope.Data, nil
}

// Verify fetches the current state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*TransactionData, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}

	var envelope verifyEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verify response: %w", err)
	}
	if !envelope.Status {
		return nil, fmt.Errorf("%w: %s", ErrTransactionError, envelope.Message)
	}
	return &envelope.Data, nil
}

// VerifyWebhookSignature checks the x-paystack-signature header against an
// HMAC-SHA512 of the raw body keyed with the secret key.
func (c *Client) VerifyWebhookSignature(body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(c.config.SecretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseWebhookEvent decodes a webhook payload.
func ParseWebhookEvent(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal webhook event: %w", err)
	}
	return &event, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var envelope apiEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, fmt.Errorf("%w: %s", ErrUnauthorized, envelope.Message)
		case http.StatusBadRequest:
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, envelope.Message)
		default:
			return nil, fmt.Errorf("%w: %s", ErrTransactionError, envelope.Message)
		}
	}

	return body, nil
}
