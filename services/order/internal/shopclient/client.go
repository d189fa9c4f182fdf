// Package shopclient is the callback half of the billing handoff: once a
// bill is persisted the order service tells the shop to finish the order.
package shopclient

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewClient(shopURL, internalToken string) *Client {
	return &Client{
		baseURL:       shopURL,
		internalToken: internalToken,
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

func (c *Client) Finish(ctx context.Context, orderNumber uint) error {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPatch,
		fmt.Sprintf("%s/api/orders/finish/%d", c.baseURL, orderNumber),
		nil,
	)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.internalToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("finish failed with status: %d", resp.StatusCode)
	}
	return nil
}
