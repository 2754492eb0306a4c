package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

func New(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type Ticker struct {
	Pair string  `json:"pair"`
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
}

type Balance struct {
	Asset     string  `json:"asset"`
	Total     float64 `json:"total"`
	Available float64 `json:"available"`
}

type OrderRequest struct {
	Pair          string  `json:"pair"`
	Side          string  `json:"side"`
	Type          string  `json:"type"`
	Price         float64 `json:"price"`
	Size          float64 `json:"size"`
	ExpirySeconds int64   `json:"expiry_seconds,omitempty"`
	ClientOrderID string  `json:"client_order_id,omitempty"`
}

type OrderAck struct {
	OrderID     string `json:"order_id"`
	CreatedAtMS int64  `json:"created_at_ms"`
}

type OpenOrder struct {
	OrderID     string  `json:"order_id"`
	Pair        string  `json:"pair"`
	Side        string  `json:"side"`
	Price       float64 `json:"price"`
	Size        float64 `json:"size"`
	CreatedAtMS int64   `json:"created_at_ms"`
}

func (c *Client) Ticker(ctx context.Context, pair string) (Ticker, error) {
	var out Ticker
	err := c.get(ctx, "/v1/ticker?pair="+url.QueryEscape(pair), &out)
	return out, err
}

func (c *Client) Balances(ctx context.Context) ([]Balance, error) {
	var out []Balance
	err := c.get(ctx, "/v1/balances", &out)
	return out, err
}

func (c *Client) OpenOrders(ctx context.Context, pair string) ([]OpenOrder, error) {
	var out []OpenOrder
	err := c.get(ctx, "/v1/orders?pair="+url.QueryEscape(pair), &out)
	return out, err
}

func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (OrderAck, error) {
	var out OrderAck
	err := c.post(ctx, "/v1/orders", req, &out)
	return out, err
}

func (c *Client) CancelOrder(ctx context.Context, pair, orderID string) error {
	path := "/v1/orders/" + url.PathEscape(orderID) + "?pair=" + url.QueryEscape(pair)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
