// Package fulfillment talks to the external pizza factory. The pipeline
// depends on the Submitter interface, not the HTTP client, so order
// placement is testable without a live factory.
package fulfillment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrFactory marks a factory-side rejection (non-200 response)
var ErrFactory = errors.New("factory rejected order")

// FactoryOrder is the payload posted to the factory endpoint
type FactoryOrder struct {
	ID          uint          `json:"id"`
	DinerID     uint          `json:"dinerId"`
	FranchiseID uint          `json:"franchiseId"`
	StoreID     uint          `json:"storeId"`
	Items       []FactoryItem `json:"items"`
	TotalPrice  float64       `json:"totalPrice"`
}

type FactoryItem struct {
	MenuID      uint    `json:"menuId"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Submitter is the injected fulfillment capability
type Submitter interface {
	// Submit posts a priced order and returns the factory's
	// fulfillment token
	Submit(ctx context.Context, order FactoryOrder) (string, error)
}

// Client is the HTTP implementation of Submitter
type Client struct {
	url    string
	apiKey string
	http   *http.Client
	log    *zap.Logger
}

func NewClient(url, apiKey string, log *zap.Logger) *Client {
	return &Client{
		url:    url,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}
}

func (c *Client) Submit(ctx context.Context, order FactoryOrder) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("encode factory order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build factory request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		// timeouts and connection failures read the same as a
		// factory rejection to the caller
		c.log.Warn("factory call failed", zap.Uint("orderId", order.ID), zap.Error(err))
		return "", fmt.Errorf("call factory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.log.Warn("factory returned non-200",
			zap.Uint("orderId", order.ID), zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", ErrFactory, resp.StatusCode)
	}

	var result struct {
		JWT string `json:"jwt"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode factory response: %w", err)
	}
	if result.JWT == "" {
		return "", fmt.Errorf("%w: missing fulfillment token", ErrFactory)
	}

	c.log.Info("order fulfilled by factory", zap.Uint("orderId", order.ID))
	return result.JWT, nil
}
