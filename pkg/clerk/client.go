package clerk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.clerk.com/v1"
	defaultTimeout             = 15 * time.Second
	responseBodyReadLimit int64 = 1024
)

var errSecretKeyRequired = errors.New("clerk secret key is required")

// Client reads user profiles from the identity provider's backend API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(secretKey)
	if trimmed == "" {
		return nil, errSecretKeyRequired
	}
	client := &Client{
		secretKey:  trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// EmailAddress is one address attached to a user.
type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// User is the subset of the user profile used for customer enrichment.
type User struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// PrimaryEmail returns the primary address, else the first one, lowercased.
func (u User) PrimaryEmail() string {
	for _, addr := range u.EmailAddresses {
		if addr.ID == u.PrimaryEmailAddressID && addr.EmailAddress != "" {
			return strings.ToLower(strings.TrimSpace(addr.EmailAddress))
		}
	}
	for _, addr := range u.EmailAddresses {
		if addr.EmailAddress != "" {
			return strings.ToLower(strings.TrimSpace(addr.EmailAddress))
		}
	}
	return ""
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "clerk client not configured")
	}
	trimmed := strings.TrimSpace(userID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	endpoint := fmt.Sprintf("%s/users/%s", strings.TrimRight(c.baseURL, "/"), url.PathEscape(trimmed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build get user request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute get user request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clerk user not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "get user request failed")
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode user response")
	}
	return &user, nil
}
