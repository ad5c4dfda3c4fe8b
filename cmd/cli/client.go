package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type tokenData struct {
	Token string `json:"token"`
}

// apiClient talks to the storefront HTTP API.
type apiClient struct {
	BaseURL   string
	TokenPath string
	HTTP      *http.Client
}

func newAPIClient(baseURL, tokenPath string) *apiClient {
	return &apiClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		TokenPath: tokenPath,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// do sends payload as JSON (or raw when it is an io.Reader) and decodes the
// response into out when out is non-nil.
func (c *apiClient) do(ctx context.Context, method, path string, admin bool, payload, out any) error {
	var body io.Reader
	switch p := payload.(type) {
	case nil:
	case io.Reader:
		body = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		token, err := c.token()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s %s: %s (%d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s failed: %s", method, path, strings.TrimSpace(string(data)))
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if w, ok := out.(io.Writer); ok {
		_, err := w.Write(data)
		return err
	}
	return json.Unmarshal(data, out)
}

func (c *apiClient) token() (string, error) {
	data, err := os.ReadFile(c.TokenPath)
	if err != nil {
		return "", fmt.Errorf("token not found, please login: %w", err)
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	if strings.TrimSpace(td.Token) == "" {
		return "", errors.New("token empty, please login")
	}
	return strings.TrimSpace(td.Token), nil
}

func (c *apiClient) saveToken(token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(c.TokenPath), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath, data, 0o600)
}

func (c *apiClient) clearToken() error {
	if err := os.Remove(c.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (c *apiClient) websocketURL(path string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.storefront-token.json"
	}
	return filepath.Join(home, ".storefront", "token.json")
}
