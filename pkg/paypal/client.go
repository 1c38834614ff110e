// Package paypal is a thin REST client for PayPal Checkout orders and
// webhook verification.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/milosbg/mbg-admin-backend/pkg/config"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

const (
	StatusCompleted = "COMPLETED"

	IssueOrderAlreadyCaptured = "ORDER_ALREADY_CAPTURED"

	verificationSuccess = "SUCCESS"

	responseBodyReadLimit int64 = 4096
)

var (
	errCredentialsRequired = errors.New("paypal client id and secret are required")

	// ErrAlreadyCaptured is returned by CaptureOrder when the order was
	// captured by an earlier call.
	ErrAlreadyCaptured = errors.New("paypal order already captured")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	webhookID  string
}

// Option configures optional client behavior.
type Option func(*options)

type options struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient sets the transport used for both token and API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithBaseURL overrides the environment endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			o.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// NewClient builds a client that authenticates with OAuth2 client
// credentials. Tokens are cached and refreshed by the oauth2 transport.
func NewClient(cfg config.PayPalConfig, opts ...Option) (*Client, error) {
	clientID := strings.TrimSpace(cfg.ClientID)
	secret := strings.TrimSpace(cfg.Secret)
	if clientID == "" || secret == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	o := options{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	credentials := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: secret,
		TokenURL:     o.baseURL + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, o.httpClient)
	authed := credentials.Client(tokenCtx)
	authed.Timeout = timeout

	return &Client{
		httpClient: authed,
		baseURL:    o.baseURL,
		webhookID:  strings.TrimSpace(cfg.WebhookID),
	}, nil
}

// CreateOrder creates a checkout order and returns its representation.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	var order Order
	headers := map[string]string{"Prefer": "return=representation"}
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", req, headers, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder captures an approved order. An order captured earlier yields
// ErrAlreadyCaptured.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*Order, error) {
	body := map[string]any{"payment_source": map[string]any{"paypal": map[string]any{}}}
	var order Order
	path := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	err := c.do(ctx, http.MethodPost, path, body, map[string]string{"Prefer": "return=representation"}, &order)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.HasIssue(IssueOrderAlreadyCaptured) {
			return nil, ErrAlreadyCaptured
		}
		return nil, err
	}
	return &order, nil
}

// GetOrder fetches the authoritative order state.
func (c *Client) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodGet, "/v2/checkout/orders/"+url.PathEscape(orderID), nil, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifyWebhookSignature asks PayPal to verify a delivery. It returns false
// for incomplete headers or a missing webhook id without calling out.
func (c *Client) VerifyWebhookSignature(ctx context.Context, headers WebhookHeaders, event json.RawMessage) (bool, error) {
	if !headers.Complete() || c.webhookID == "" {
		return false, nil
	}
	req := map[string]any{
		"transmission_id":   headers.TransmissionID,
		"transmission_time": headers.TransmissionTime,
		"cert_url":          headers.CertURL,
		"auth_algo":         headers.AuthAlgo,
		"transmission_sig":  headers.TransmissionSig,
		"webhook_id":        c.webhookID,
		"webhook_event":     event,
	}
	var resp struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/notifications/verify-webhook-signature", req, nil, &resp); err != nil {
		return false, err
	}
	return resp.VerificationStatus == verificationSuccess, nil
}

// APIError is a non-2xx PayPal response.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	Details    []struct {
		Issue       string `json:"issue"`
		Description string `json:"description"`
	} `json:"details"`
	body string
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("paypal status %d: %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("paypal status %d: %s", e.StatusCode, e.body)
}

// HasIssue reports whether any detail carries issue.
func (e *APIError) HasIssue(issue string) bool {
	for _, d := range e.Details {
		if d.Issue == issue {
			return true
		}
	}
	return false
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "paypal client not configured")
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal paypal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paypal request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute paypal request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		apiErr := &APIError{StatusCode: resp.StatusCode, body: strings.TrimSpace(string(raw))}
		_ = json.Unmarshal(raw, apiErr)
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, apiErr, "paypal request failed")
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode paypal response")
	}
	return nil
}
