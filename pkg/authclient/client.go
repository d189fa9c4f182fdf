// Package authclient is the client side of the authentication gateway: a thin
// HTTP client the protected services use to ask the user service whether a
// bearer token is valid and which identity it carries.
package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrInvalidToken means the user service answered and rejected the token, as
// opposed to a transport failure reaching it.
var ErrInvalidToken = errors.New("invalid token")

type Principal struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: authServiceURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Validate performs one synchronous call to the user service's validate
// endpoint. No retries: the request filter decides what a failure means.
func (c *Client) Validate(ctx context.Context, token string) (*Principal, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/api/authentications/validate",
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrInvalidToken
	default:
		return nil, fmt.Errorf("validate failed with status: %d", resp.StatusCode)
	}

	var principal Principal
	if err := json.NewDecoder(resp.Body).Decode(&principal); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if principal.Username == "" {
		return nil, ErrInvalidToken
	}

	return &principal, nil
}
