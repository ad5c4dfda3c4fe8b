// Package sheet talks to the spreadsheet script endpoint that mirrors the
// product list.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/pkg/models"
)

var (
	// ErrRemote wraps an error reported by the script itself.
	ErrRemote        = errors.New("sheet error")
	ErrNotConfigured = errors.New("sheet script url not configured")
	ErrNothingToSend = errors.New("no products to send")
)

// envelope is the script's response body.
type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

type Client struct {
	ScriptURL string
	SheetName string
	HTTP      *http.Client
	Logger    *zap.Logger
}

func NewClient(scriptURL, sheetName string, timeout time.Duration, logger *zap.Logger) *Client {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		ScriptURL: scriptURL,
		SheetName: sheetName,
		HTTP:      &http.Client{Timeout: timeout},
		Logger:    logger,
	}
}

func (c *Client) Name() string { return "sheet" }

// FetchAll reads the configured sheet.
func (c *Client) FetchAll(ctx context.Context) ([]models.Product, error) {
	return c.Read(ctx, c.SheetName)
}

// Read loads the products stored in sheet. Missing fields are filled with
// the editor defaults.
func (c *Client) Read(ctx context.Context, sheet string) ([]models.Product, error) {
	env, err := c.get(ctx, "read", sheet)
	if err != nil {
		return nil, err
	}
	if env.Status != "success" {
		return nil, remoteErr(env)
	}

	var products []models.Product
	if err := json.Unmarshal(env.Data, &products); err != nil || products == nil {
		return nil, fmt.Errorf("%w: unexpected sheet response", ErrRemote)
	}
	for i := range products {
		catalog.FillDefaults(&products[i])
	}
	c.Logger.Debug("sheet read", zap.String("sheet", sheet), zap.Int("products", len(products)))
	return products, nil
}

// Delete asks the script to wipe sheet. It returns the script's message.
func (c *Client) Delete(ctx context.Context, sheet string) (string, error) {
	env, err := c.get(ctx, "delete", sheet)
	if err != nil {
		return "", err
	}
	if env.Status != "success" {
		return "", remoteErr(env)
	}
	msg := env.Message
	if msg == "" {
		msg = "OK"
	}
	return msg, nil
}

// Send posts the full product list to the script.
func (c *Client) Send(ctx context.Context, products []models.Product) (string, error) {
	if len(products) == 0 {
		return "", ErrNothingToSend
	}
	if c.ScriptURL == "" {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(products)
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ScriptURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("sheet: build request: %w", err)
	}
	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	if env.Status != "success" {
		return "", remoteErr(env)
	}
	c.Logger.Info("sheet updated", zap.Int("products", len(products)))
	return env.Message, nil
}

func (c *Client) get(ctx context.Context, action, sheet string) (*envelope, error) {
	if c.ScriptURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(c.ScriptURL)
	if err != nil {
		return nil, fmt.Errorf("sheet: parse url: %w", err)
	}
	q := u.Query()
	q.Set("action", action)
	q.Set("path", sheet)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("sheet: build request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("sheet: status %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("sheet: decode response: %w", err)
	}
	return &env, nil
}

func remoteErr(env *envelope) error {
	switch {
	case env.Error != "":
		return fmt.Errorf("%w: %s", ErrRemote, env.Error)
	case env.Message != "":
		return fmt.Errorf("%w: %s", ErrRemote, env.Message)
	default:
		return fmt.Errorf("%w: status %q", ErrRemote, env.Status)
	}
}
